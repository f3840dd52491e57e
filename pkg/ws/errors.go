package ws

import "errors"

var (
	ErrServerClosed    = errors.New("server closed")
	ErrClientClosed    = errors.New("client closed")
	ErrTransportFailed = errors.New("transport failed")
)
