// Package auth builds an authenticated Google Sheets service. It prefers a
// service account key when one is present and otherwise runs the installed
// application OAuth flow, caching the obtained token under the app's config
// directory.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	// ServiceAccountFile is the service account key, if the spreadsheet is
	// accessed with one.
	ServiceAccountFile = "service-account.json"

	// ClientSecretsFile holds the OAuth client id and secret downloaded
	// from the Google Cloud console, used when no service account key
	// exists.
	ClientSecretsFile = "credentials.json"

	// TokenFile caches the user's OAuth token between runs.
	TokenFile = "token.json"

	// LocalhostAuthPort is the port the local redirect listener binds
	// during the OAuth flow.
	LocalhostAuthPort = "6789"

	xdgAppName = "tasksheet"
)

// ConfigDir returns the app's config directory (~/.config/tasksheet).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

// NewSheetsService builds the Sheets API service. The TASKSHEET_CREDENTIALS
// environment variable overrides the service account key path.
func NewSheetsService(ctx context.Context) (*sheetsapi.Service, error) {
	keyFile := os.Getenv("TASKSHEET_CREDENTIALS")
	if keyFile == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		keyFile = filepath.Join(dir, ServiceAccountFile)
	}

	if _, err := os.Stat(keyFile); err == nil {
		srv, err := sheetsapi.NewService(ctx,
			option.WithCredentialsFile(keyFile),
			option.WithScopes(sheetsapi.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("unable to build Sheets service from %s: %w", keyFile, err)
		}
		return srv, nil
	}

	client, err := oauthClient(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to build Sheets service: %w", err)
	}
	return srv, nil
}

// ResetToken deletes the cached OAuth token, forcing a fresh authorization
// on the next run.
func ResetToken() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	tokenFile := filepath.Join(dir, TokenFile)
	if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete token file %s: %w", tokenFile, err)
	}
	return nil
}

// oauthClient returns an *http.Client that refreshes its token
// automatically, running the browser authorization flow when no cached
// token exists.
func oauthClient(ctx context.Context) (*http.Client, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	secrets, err := os.ReadFile(filepath.Join(dir, ClientSecretsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(secrets, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}
	config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", LocalhostAuthPort)

	tokenFile := filepath.Join(dir, TokenFile)
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		log.Printf("No cached token at %s, starting authorization flow...", tokenFile)
		tok, err = tokenFromWeb(ctx, config)
		if err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		if err := saveToken(tokenFile, tok); err != nil {
			log.Printf("Warning: could not cache token: %v", err)
		}
	}

	return config.Client(ctx, tok), nil
}

// tokenFromWeb runs the authorization code flow, capturing the redirect on
// a local listener.
func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", LocalhostAuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on port %s: %w", LocalhostAuthPort, err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following URL in your browser to authorize tasksheet:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		exCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exCtx, code)
		if err != nil {
			return nil, fmt.Errorf("unable to exchange authorization code: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
