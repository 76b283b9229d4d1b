package gdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/examcell/centre-portal-api/pkg/config"
)

const spreadsheetMIME = "application/vnd.google-apps.spreadsheet"

// Client wraps the Drive API for the backup flow: upload the raw CSV,
// request a server-side spreadsheet conversion, then remove the raw copy.
type Client struct {
	svc      *drive.Service
	folderID string
}

// NewClient builds a Drive client from the OAuth client credentials and the
// refresh token persisted on disk by a prior authorization-code exchange.
func NewClient(ctx context.Context, cfg config.DriveConfig) (*Client, error) {
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}

	token, err := loadToken(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	svc, err := drive.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Client{svc: svc, folderID: cfg.FolderID}, nil
}

// UploadCSV uploads the local file as-is and returns the remote file ID.
func (c *Client) UploadCSV(ctx context.Context, localPath, name string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open backup file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	meta := &drive.File{Name: name, MimeType: "text/csv"}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	created, err := c.svc.Files.Create(meta).Media(file).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("upload backup file: %w", err)
	}
	return created.Id, nil
}

// ConvertToSpreadsheet copies the uploaded CSV into a Google spreadsheet and
// returns the new file ID. The raw file is left untouched.
func (c *Client) ConvertToSpreadsheet(ctx context.Context, fileID, name string) (string, error) {
	meta := &drive.File{Name: name, MimeType: spreadsheetMIME}
	if c.folderID != "" {
		meta.Parents = []string{c.folderID}
	}

	converted, err := c.svc.Files.Copy(fileID, meta).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("convert backup to spreadsheet: %w", err)
	}
	return converted.Id, nil
}

// Delete removes a remote file.
func (c *Client) Delete(ctx context.Context, fileID string) error {
	if err := c.svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete remote file: %w", err)
	}
	return nil
}

func loadToken(path string) (*oauth2.Token, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read drive token: %w", err)
	}
	defer file.Close() //nolint:errcheck

	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, fmt.Errorf("decode drive token: %w", err)
	}
	return token, nil
}

// AuthURL returns the consent URL for the one-time token bootstrap.
func AuthURL(cfg config.DriveConfig) (string, error) {
	conf, err := oauthConfig(cfg)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades an authorization code for a token and persists it at the
// configured token path.
func Exchange(ctx context.Context, cfg config.DriveConfig, code string) error {
	conf, err := oauthConfig(cfg)
	if err != nil {
		return err
	}
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return SaveToken(cfg.TokenFile, token)
}

func oauthConfig(cfg config.DriveConfig) (*oauth2.Config, error) {
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	conf, err := google.ConfigFromJSON(raw, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	return conf, nil
}

// SaveToken persists a token obtained from an authorization-code exchange.
func SaveToken(path string, token *oauth2.Token) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create drive token file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if err := json.NewEncoder(file).Encode(token); err != nil {
		return fmt.Errorf("encode drive token: %w", err)
	}
	return nil
}
