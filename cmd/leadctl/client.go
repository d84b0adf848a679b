package main

import (
	"leadctl/internal/config"
	"leadctl/internal/leadapi"
	"leadctl/internal/session"
)

// newClient builds the API client from config. Session cookies persist
// under the data directory so consecutive invocations stay logged in.
func newClient() (*leadapi.Client, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	client, err := leadapi.NewPersistent(cfg.API.BaseURL, cfg.Timeout(), cfg.CookieFile())
	if err != nil {
		return nil, config.Config{}, err
	}
	return client, cfg, nil
}

func newSession() (*session.Store, *leadapi.Client, config.Config, error) {
	client, cfg, err := newClient()
	if err != nil {
		return nil, nil, config.Config{}, err
	}
	return session.NewStore(client), client, cfg, nil
}
