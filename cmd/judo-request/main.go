package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/judopay/judopay-go/internal/config"
	"github.com/judopay/judopay-go/internal/logger"
	"github.com/judopay/judopay-go/pkg/httpclient"
	"github.com/judopay/judopay-go/pkg/judopay"
)

const usage = `usage:
  judo-request get <path>
  judo-request post <path> <json-file|->`

var errUsage = errors.New(usage)

func main() {
	os.Exit(start())
}

func start() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	log, err := logger.Init(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := httpclient.NewRestyClient(httpclient.Options{
		Timeout: cfg.HTTPTimeout,
		Logger:  log.Sugar(),
	})
	builder := judopay.NewRequestBuilder(cfg.Judopay(), client)

	return run(ctx, builder, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// run executes one request and returns the process exit code.
func run(ctx context.Context, builder *judopay.RequestBuilder, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	resp, err := dispatch(ctx, builder, args, stdin)
	if err != nil {
		reportError(stderr, err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	if _, err := stdout.Write(resp.Body()); err != nil {
		fmt.Fprintf(stderr, "write response: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout)
	return 0
}

func dispatch(ctx context.Context, builder *judopay.RequestBuilder, args []string, stdin io.Reader) (httpclient.Response, error) {
	if len(args) < 2 {
		return nil, errUsage
	}
	path := args[1]

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return nil, errUsage
		}
		return builder.Get(ctx, path)
	case "post":
		if len(args) != 3 {
			return nil, errUsage
		}
		payload, err := readPayload(args[2], stdin)
		if err != nil {
			return nil, err
		}
		return builder.Post(ctx, path, payload)
	default:
		return nil, errUsage
	}
}

// readPayload loads the request body from a file, or stdin for "-", and
// checks it is valid JSON.
func readPayload(source string, stdin io.Reader) (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)
	if source == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload from %s is not valid JSON", source)
	}
	return json.RawMessage(raw), nil
}

func reportError(w io.Writer, err error) {
	var apiErr *judopay.APIError
	if !errors.As(err, &apiErr) {
		fmt.Fprintln(w, err)
		return
	}

	fmt.Fprintf(w, "status: %d\nkind: %s\nmessage: %s\n", apiErr.StatusCode, apiErr.Kind, apiErr.Message)
	for _, d := range apiErr.Details {
		fmt.Fprintf(w, "  %s: %s\n", d.FieldName, d.Message)
	}
}
