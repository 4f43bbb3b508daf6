// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command oneshot sends one HTTP/1.1 request over a fresh TCP
// connection and exits once the connection is closed.
//
// Usage:
//
//	oneshot -host 127.0.0.1 -port 8080 -uri /health
//	oneshot -host 127.0.0.1 -port 8080 -uri /events -method POST -content '{"id":1}'
//
// The exit status is 0 if the request was written, 1 if it was not, and
// 2 for bad arguments.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogama/oneshot"
	"github.com/gogama/oneshot/request"
	"github.com/gogama/oneshot/timeout"
)

type config struct {
	host       string
	port       int
	uri        string
	method     string
	content    string
	hostHeader string
	timeout    time.Duration
	logLevel   string
	json       bool
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	cfg := &config{}
	fs := flag.NewFlagSet("oneshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.host, "host", "127.0.0.1", "host name or IP address to connect to")
	fs.IntVar(&cfg.port, "port", 80, "TCP port to connect to")
	fs.StringVar(&cfg.uri, "uri", "/", "request-target written on the request line")
	fs.StringVar(&cfg.method, "method", "GET", "HTTP method")
	fs.StringVar(&cfg.content, "content", "", "JSON body, sent only with POST")
	fs.StringVar(&cfg.hostHeader, "host-header", request.DefaultHostHeader, "Host header value")
	fs.DurationVar(&cfg.timeout, "timeout", 0, "overall time limit; 0 waits until the peer closes")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.json, "json", false, "log as JSON")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

func newLogger(cfg *config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.json {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg *config, log *slog.Logger) (*request.Execution, error) {
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	p, err := request.NewPlanWithContext(ctx, cfg.host, cfg.port, cfg.uri, cfg.method, cfg.content)
	if err != nil {
		return nil, err
	}
	if cfg.hostHeader != p.HostHeader {
		p.HostHeader = cfg.hostHeader
		if err = request.Validate(p); err != nil {
			return nil, err
		}
	}

	b := &oneshot.Bootstrap{Logger: log}
	if err = b.Start(); err != nil {
		return nil, err
	}
	defer b.Shutdown()

	cl := &oneshot.Client{
		Bootstrap:     b,
		TimeoutPolicy: timeout.DefaultPolicy,
		Logger:        log,
	}
	return cl.Send(p)
}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

func realMain(args []string, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	log, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "oneshot:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := run(ctx, cfg, log)
	var fe request.FieldErrors
	switch {
	case errors.As(err, &fe):
		fmt.Fprintln(stderr, "oneshot:", err)
		return 2
	case e == nil && err != nil:
		fmt.Fprintln(stderr, "oneshot:", err)
		return 1
	case !e.Sent:
		return 1
	}
	if e.Response != nil {
		log.Debug("response received", "id", e.ID, "status", e.StatusCode(), "bytes", len(e.Body))
	}
	return 0
}
