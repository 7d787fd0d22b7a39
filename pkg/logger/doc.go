// Package logger provides structured logging for reqbench on top of zerolog.
//
// The CLI initializes a global logger from the logging section of the config;
// library code takes a Logger so hosts can pass their own or NewNopLogger():
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("addr", cfg.Server.Addr).Info("Listening")
//
// Console output is used unless format is "json". Tests use NewTestLogger to
// capture messages.
package logger
