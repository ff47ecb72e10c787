package core

import "testing"

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from JobStatus
		want JobStatus
		ok   bool
	}{
		{JobApplied, JobInterview, true},
		{JobInterview, JobOffer, true},
		{JobOffer, "", false},
		{JobRejected, "", false},
	}
	for _, tc := range cases {
		got, ok := NextStatus(tc.from)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("NextStatus(%s) = %q, %v; want %q, %v", tc.from, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNextStatusNeverRejects(t *testing.T) {
	for _, s := range []JobStatus{JobApplied, JobInterview, JobOffer, JobRejected} {
		if next, _ := NextStatus(s); next == JobRejected {
			t.Fatalf("%s advanced to rejected", s)
		}
	}
}

func TestJobStatusActive(t *testing.T) {
	if !JobApplied.Active() || !JobInterview.Active() {
		t.Fatalf("applied and interview are active")
	}
	if JobOffer.Active() || JobRejected.Active() {
		t.Fatalf("offer and rejected are not active")
	}
}
