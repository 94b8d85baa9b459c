package consolegrp

import (
	"github.com/ardanlabs/lockbox/business/core/access"
	"github.com/ardanlabs/lockbox/business/core/attr"
	"github.com/ardanlabs/lockbox/business/sys/validate"
	"github.com/ardanlabs/lockbox/foundation/events"
)

type status struct {
	access.State
	Username string              `json:"username"`
	Halted   bool                `json:"halted"`
	Reason   string              `json:"reason,omitempty"`
	Sensor   attr.Reading        `json:"sensor"`
	Peers    []events.Subscriber `json:"peers"`
}

type presence struct {
	Reading uint16 `json:"reading" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (p presence) Validate() error {
	return validate.Check(p)
}

type generate struct {
	User string `json:"user" validate:"required,max=15"`
}

// Validate checks the data in the model is considered clean.
func (g generate) Validate() error {
	return validate.Check(g)
}

type verify struct {
	User string `json:"user" validate:"required,max=15"`
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Validate checks the data in the model is considered clean.
func (v verify) Validate() error {
	return validate.Check(v)
}

type tamper struct {
	Reason string `json:"reason" validate:"max=31"`
}

// Validate checks the data in the model is considered clean.
func (t tamper) Validate() error {
	return validate.Check(t)
}

type result struct {
	Status  string `json:"status"`
	User    string `json:"user,omitempty"`
	Code    string `json:"code,omitempty"`
	Granted *bool  `json:"granted,omitempty"`
}
