package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"qakit/internal/compress"
	"qakit/internal/digest"
	"qakit/internal/jsonutil"
	"qakit/internal/mockdata"
	"qakit/internal/payloads"
	"qakit/internal/webhook"
)

func runHash(a *app, args []string) error {
	fs := a.newFlagSet("hash")
	alg := fs.String("alg", string(digest.SHA256), "algorithm")
	format := fs.String("format", "hex", "hex or base64")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.digest(*alg, *format, "", fs.Args())
}

func runHMAC(a *app, args []string) error {
	fs := a.newFlagSet("hmac")
	alg := fs.String("alg", string(digest.SHA256), "algorithm")
	format := fs.String("format", "hex", "hex or base64")
	secret := fs.String("secret", "", "HMAC key (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return fmt.Errorf("-secret is required")
	}
	return a.digest(*alg, *format, *secret, fs.Args())
}

func (a *app) digest(algName, formatName, secret string, args []string) error {
	alg, err := digest.ParseAlgorithm(algName)
	if err != nil {
		return err
	}
	format, err := digest.ParseFormat(formatName)
	if err != nil {
		return err
	}
	text, err := a.textArg(args)
	if err != nil {
		return err
	}

	var value string
	if secret != "" {
		value, err = digest.HMAC(alg, []byte(text), []byte(secret), format)
	} else {
		value, err = digest.Hash(alg, []byte(text), format)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.stdout, value)
	return err
}

func runWebhook(a *app, args []string) error {
	fs := a.newFlagSet("webhook")
	provider := fs.String("provider", string(webhook.Generic), "generic, stripe or github")
	endpoint := fs.String("endpoint", "", "destination URL (required)")
	secret := fs.String("secret", "", "signing secret (required)")
	event := fs.String("event", webhook.DefaultEventType, "event type")
	alg := fs.String("alg", string(digest.SHA256), "signature algorithm")
	method := fs.String("method", http.MethodPost, "POST, PUT or PATCH")
	payloadPath := fs.String("payload", "", "JSON payload file (default stdin)")
	timestamp := fs.Int64("timestamp", 0, "unix timestamp to sign with (default now)")
	send := fs.Bool("send", false, "deliver the request and print the response")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := webhook.ParseProvider(*provider)
	if err != nil {
		return err
	}
	algorithm, err := digest.ParseAlgorithm(*alg)
	if err != nil {
		return err
	}
	payload, err := a.readInput(*payloadPath)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	signed, err := webhook.Sign(webhook.Request{
		Provider:  p,
		Method:    *method,
		Endpoint:  *endpoint,
		EventType: *event,
		Secret:    *secret,
		Algorithm: algorithm,
		Timestamp: *timestamp,
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	if !*send {
		_, err = fmt.Fprintln(a.stdout, signed.Curl)
		return err
	}

	client := &http.Client{Timeout: a.cfg.WebhookTimeout}
	delivery, err := webhook.Deliver(context.Background(), client, signed)
	if err != nil {
		return err
	}
	a.logger.Info("webhook delivered",
		"endpoint", signed.Summary.Endpoint,
		"status", delivery.Status,
		"duration", delivery.Duration,
	)
	out, err := jsonutil.MarshalNoEscapeIndent(delivery)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(append(out, '\n'))
	return err
}

func runPayloads(a *app, args []string) error {
	fs := a.newFlagSet("payloads")
	kind := fs.String("type", "all", "all, sqli or xss")
	if err := fs.Parse(args); err != nil {
		return err
	}
	k, err := payloads.ParseKind(*kind)
	if err != nil {
		return err
	}
	entries, err := payloads.List(k)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintln(a.stdout, e.Payload); err != nil {
			return err
		}
	}
	return nil
}

func runMock(a *app, args []string) error {
	fs := a.newFlagSet("mock")
	overwrite := fs.Bool("overwrite", false, "regenerate values that are already filled")
	seed := fs.String("seed", "", "seed for repeatable output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gen := mockdata.New(nil)
	if *seed != "" {
		n, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -seed %q: %w", *seed, err)
		}
		gen = mockdata.NewSeeded(n)
	}

	template, err := a.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	filled, err := gen.PopulateJSON(template, *overwrite)
	if err != nil {
		return err
	}
	pretty, err := jsonutil.Pretty(filled)
	if err != nil {
		return err
	}
	_, err = a.stdout.Write(append(pretty, '\n'))
	return err
}

func runCompress(a *app, args []string) error {
	fs := a.newFlagSet("compress")
	format := fs.String("format", "gzip", "gzip or lz4")
	decompress := fs.Bool("d", false, "decompress instead")
	in := fs.String("in", "", "input file (default stdin)")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, err := compress.ParseFormat(*format)
	if err != nil {
		return err
	}
	data, err := a.readInput(*in)
	if err != nil {
		return err
	}

	var result []byte
	if *decompress {
		result, err = compress.UnBytes(f, data)
	} else {
		result, err = compress.Bytes(f, data)
	}
	if err != nil {
		return err
	}
	if !*decompress {
		a.logger.Debug("compressed input",
			"format", string(f),
			"in_bytes", len(data),
			"out_bytes", len(result),
			"ratio", compress.Ratio(len(data), len(result)),
		)
	}
	return a.writeOutput(*out, result)
}

func runJSON(a *app, args []string) error {
	fs := a.newFlagSet("json")
	op := fs.String("op", "pretty", "pretty, minify or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	data, err := a.readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	var out []byte
	switch *op {
	case "pretty":
		out, err = jsonutil.Pretty(data)
	case "minify":
		out, err = jsonutil.Minify(data)
	case "yaml":
		out, err = jsonutil.ToYAML(data)
	default:
		return fmt.Errorf("unsupported op %q (want pretty, minify or yaml)", *op)
	}
	if err != nil {
		return err
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	_, err = a.stdout.Write(out)
	return err
}
