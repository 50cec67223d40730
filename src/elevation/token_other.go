//go:build !windows

package elevation

import "errors"

var errUnsupported = errors.New("process tokens are only available on Windows")

type unsupportedTokens struct{}

// NewTokenSource returns a source whose opens always fail, so every
// classification on this platform is "not elevated".
func NewTokenSource() TokenSource { return unsupportedTokens{} }

func (unsupportedTokens) OpenProcess(uint32) (Handle, error) { return 0, errUnsupported }

func (unsupportedTokens) OpenToken(Handle) (Handle, error) { return 0, errUnsupported }

func (unsupportedTokens) QueryElevation(Handle) (bool, error) { return false, errUnsupported }

func (unsupportedTokens) Close(Handle) error { return nil }
