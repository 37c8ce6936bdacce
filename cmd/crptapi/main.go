/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command crptapi submits "introduce goods" documents to the CRPT API while respecting the configured request quota.
//
// Usage:
//
//	crptapi -config config.yml -signature <signature> doc1.json [doc2.json ...]
//
// Documents are submitted concurrently. The rate limiter is shut down after all submissions finish.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/acronis/go-crptapi/config"
	"github.com/acronis/go-crptapi/crptapi"
	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/ratelimit"
)

const envVarsPrefix = "CRPTAPI"

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type appConfig struct {
	Log       *log.Config
	RateLimit *ratelimit.Config
	CRPT      *crptapi.Config
}

func loadAppConfig(path string) (*appConfig, error) {
	cfg := &appConfig{
		Log:       log.NewConfig(),
		RateLimit: ratelimit.NewConfig(),
		CRPT:      crptapi.NewConfig(),
	}
	loader := config.NewDefaultLoader(envVarsPrefix)
	if path == "" {
		if err := loader.Load(cfg.Log, cfg.RateLimit, cfg.CRPT); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	dataType := config.DataTypeYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dataType = config.DataTypeJSON
	}
	if err := loader.LoadFromFile(path, dataType, cfg.Log, cfg.RateLimit, cfg.CRPT); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readDocument(path string) (crptapi.Document, error) {
	var doc crptapi.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err = json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode document %s: %w", path, err)
	}
	return doc, nil
}

func run(args []string) (retErr error) {
	fs := flag.NewFlagSet("crptapi", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the configuration file (YAML or JSON)")
	signature := fs.String("signature", "", "signature of the submitted documents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("at least one document file must be specified")
	}

	cfg, err := loadAppConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLogger := log.NewLogger(cfg.Log)
	defer closeLogger()

	docs := make([]crptapi.Document, 0, fs.NArg())
	for _, path := range fs.Args() {
		doc, readErr := readDocument(path)
		if readErr != nil {
			return readErr
		}
		docs = append(docs, doc)
	}

	limiter, err := ratelimit.NewWindowLimiterFromConfig(cfg.RateLimit, ratelimit.WindowLimiterOpts{
		Logger: logger.With(log.String("component", "rate_limiter")),
	})
	if err != nil {
		return fmt.Errorf("create rate limiter: %w", err)
	}
	defer func() {
		if shutdownErr := limiter.Shutdown(); shutdownErr != nil && retErr == nil {
			retErr = fmt.Errorf("shut down rate limiter: %w", shutdownErr)
		}
	}()

	client, err := crptapi.NewClient(cfg.CRPT, limiter, crptapi.ClientOpts{Logger: logger})
	if err != nil {
		return fmt.Errorf("create CRPT API client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	errs := make([]error, len(docs))
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = client.CreateDocument(ctx, docs[i], *signature)
		}(i)
	}
	wg.Wait()

	failed := 0
	for i, submitErr := range errs {
		if submitErr != nil {
			failed++
			logger.Error("document submission failed",
				log.String("file", fs.Arg(i)), log.String("doc_id", docs[i].DocID), log.Error(submitErr))
		}
	}
	logger.Info("documents submitted", log.Int("total", len(docs)), log.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d documents were not submitted", failed, len(docs))
	}
	return nil
}
