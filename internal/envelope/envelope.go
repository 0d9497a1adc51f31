// Package envelope defines the uniform JSON wrapper the system under test
// returns for every API call, and compares observed envelopes with expected
// ones.
package envelope

// Envelope is the wire shape. Absent (null) and empty collections are
// distinct: Messages == nil encodes as null, []string{} as [].
type Envelope struct {
	Success     bool     `json:"success"`
	Code        *int     `json:"code"`
	RedirectURL *string  `json:"redirectUrl"`
	Messages    []string `json:"messages"`
	Data        any      `json:"data"`
}

// OK builds a success envelope carrying data.
func OK(code int, data any) Envelope {
	return Envelope{Success: true, Code: Int(code), Data: data}
}

// Fail builds a failure envelope with the given code and messages.
func Fail(code int, messages ...string) Envelope {
	return Envelope{Success: false, Code: Int(code), Messages: messages}
}

// WithRedirect returns a copy of e with RedirectURL set.
func (e Envelope) WithRedirect(url string) Envelope {
	e.RedirectURL = String(url)
	return e
}

func Int(v int) *int { return &v }

func String(v string) *string { return &v }
