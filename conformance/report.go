//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package conformance

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
)

// Status is the outcome of a case.
type Status string

// case statuses.
const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	// StatusUnreached means the exchange never reached the point of the case, so no
	// fault was injected.
	StatusUnreached Status = "unreached"
)

// Outcome is the result of a case.
type Outcome struct {
	Case
	Status     Status        `json:"status"`
	Reached    bool          `json:"reached"`
	Error      string        `json:"error,omitempty"`
	Violations []string      `json:"violations,omitempty"`
	Duration   time.Duration `json:"duration_ns"`

	violations *multierror.Error
}

// Report is the result of a run.
type Report struct {
	Cases     []Outcome     `json:"cases"`
	Passed    int           `json:"passed"`
	Failed    int           `json:"failed"`
	Unreached int           `json:"unreached"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

func newReport(outcomes []Outcome, elapsed time.Duration) *Report {
	r := &Report{Cases: outcomes, Elapsed: elapsed}
	for _, o := range outcomes {
		switch o.Status {
		case StatusPass:
			r.Passed++
		case StatusFail:
			r.Failed++
		default:
			r.Unreached++
		}
	}
	return r
}

// OK reports whether no case failed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// JSON encodes the report.
func (r *Report) JSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(r, "", "  ")
}

// WriteText writes the report as one line per case followed by a summary. Unreached
// cases are only listed when verbose is set.
func (r *Report) WriteText(w io.Writer, verbose bool) error {
	for _, o := range r.Cases {
		if o.Status == StatusUnreached && !verbose {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-9s %-50s %v\n", o.Status, o.Name, o.Duration.Round(time.Microsecond)); err != nil {
			return err
		}
		for _, v := range o.Violations {
			if _, err := fmt.Fprintf(w, "          - %s\n", v); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d passed, %d failed, %d unreached in %v\n",
		r.Passed, r.Failed, r.Unreached, r.Elapsed.Round(time.Millisecond))
	return err
}
