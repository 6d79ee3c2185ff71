// Package platform boots the Firebase Admin SDK shared by storage, auth and uploads.
package platform

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"
)

// Firebase holds the Admin SDK clients. Clients are created lazily by the
// accessors so a deployment only pays for what it uses.
type Firebase struct {
	app *firebase.App
}

// NewFirebase initialises the Admin app. With an empty credentialsPath the
// SDK falls back to Application Default Credentials.
func NewFirebase(ctx context.Context, projectID, credentialsPath, bucket string) (*Firebase, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); err != nil {
			return nil, fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     projectID,
		StorageBucket: bucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return &Firebase{app: app}, nil
}

func (f *Firebase) Auth(ctx context.Context) (*auth.Client, error) {
	c, err := f.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}
	return c, nil
}

// Firestore returns a client the caller must Close.
func (f *Firebase) Firestore(ctx context.Context) (*firestore.Client, error) {
	c, err := f.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}
	return c, nil
}

func (f *Firebase) Storage(ctx context.Context) (*storage.Client, error) {
	c, err := f.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Storage client: %w", err)
	}
	return c, nil
}
