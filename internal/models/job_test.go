package models

import "testing"

func TestJobStatus_Terminal(t *testing.T) {
	if JobIdle.Terminal() || JobUploading.Terminal() || JobAwaitingResult.Terminal() {
		t.Error("non-settled statuses must not be terminal")
	}
	if !JobSucceeded.Terminal() || !JobFailed.Terminal() {
		t.Error("settled statuses must be terminal")
	}
}

func TestJobStatus_InFlight(t *testing.T) {
	if !JobUploading.InFlight() || !JobAwaitingResult.InFlight() {
		t.Error("uploading and awaiting must be in flight")
	}
	if JobIdle.InFlight() || JobSucceeded.InFlight() || JobFailed.InFlight() {
		t.Error("settled and idle statuses must not be in flight")
	}
}

func TestJobStatus_String(t *testing.T) {
	cases := map[JobStatus]string{
		JobIdle:           "idle",
		JobUploading:      "uploading",
		JobAwaitingResult: "extracting",
		JobSucceeded:      "succeeded",
		JobFailed:         "failed",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", status, got, want)
		}
	}
}
