package db

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"eatlens-backend-go/internal/config"
)

// Collection names shared with the web client.
const (
	usersCollection           = "users"
	upgradeRequestsCollection = "upgradeRequests"
	reviewsCollection         = "reviews"
	contactMessagesCollection = "contactMessages"
	auditLogsCollection       = "auditLogs"
)

var (
	// fsClient is the global Firestore client instance.
	fsClient *firestore.Client
	// fbAuthClient is the global Firebase Auth client instance.
	fbAuthClient *auth.Client
)

// InitFirebase initializes the Firebase Admin SDK and its Auth client. The
// Firestore client is only opened when the firestore store driver is selected.
func InitFirebase(ctx context.Context, appConfig *config.Config, logger *zap.Logger) error {
	if appConfig == nil {
		return fmt.Errorf("InitFirebase: appConfig cannot be nil")
	}

	var credsOption option.ClientOption
	switch {
	case appConfig.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", appConfig.GoogleApplicationCredentials))
		if _, err := os.Stat(appConfig.GoogleApplicationCredentials); os.IsNotExist(err) {
			// ADC may still succeed, so this is not fatal.
			logger.Warn("Credentials file does not exist", zap.String("path", appConfig.GoogleApplicationCredentials))
		}
		credsOption = option.WithCredentialsFile(appConfig.GoogleApplicationCredentials)
	case appConfig.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with Base64 encoded service account JSON.")
		decodedJSON, err := base64.StdEncoding.DecodeString(appConfig.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return fmt.Errorf("failed to decode FirebaseServiceAccountJSONBase64: %w", err)
		}
		credsOption = option.WithCredentialsJSON(decodedJSON)
	default:
		logger.Info("Initializing Firebase using Application Default Credentials (ADC).")
	}

	firebaseAppConfig := &firebase.Config{ProjectID: appConfig.FirebaseProjectID}

	var opts []option.ClientOption
	if credsOption != nil {
		opts = append(opts, credsOption)
	}
	app, err := firebase.NewApp(ctx, firebaseAppConfig, opts...)
	if err != nil {
		return fmt.Errorf("firebase.NewApp: %w", err)
	}

	if appConfig.StoreDriver == config.StoreDriverFirestore {
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("app.Firestore: %w", err)
		}
		fsClient = client
		logger.Info("Firestore client initialized successfully.")
	}

	authCl, err := app.Auth(ctx)
	if err != nil {
		if fsClient != nil {
			fsClient.Close() // Best effort close
		}
		return fmt.Errorf("app.Auth: %w", err)
	}
	fbAuthClient = authCl
	logger.Info("Firebase Auth client initialized successfully.")

	return nil
}

// GetFirestoreClient returns the global Firestore client, or nil when the
// memory store driver is in use.
func GetFirestoreClient() *firestore.Client {
	return fsClient
}

// GetFirebaseAuthClient returns the global Firebase Auth client.
func GetFirebaseAuthClient() *auth.Client {
	return fbAuthClient
}

// Close releases the Firestore client, if one was opened.
func Close() error {
	if fsClient == nil {
		return nil
	}
	return fsClient.Close()
}

// NewFirestoreRepositories wires every repository to client.
func NewFirestoreRepositories(client *firestore.Client) *Repositories {
	return &Repositories{
		Accounts: NewFirestoreAccountStore(client),
		Users:    NewFirestoreUserRepository(client),
		Requests: NewFirestoreUpgradeRequestRepository(client),
		Reviews:  NewFirestoreReviewRepository(client),
		Messages: NewFirestoreContactMessageRepository(client),
		Audit:    NewFirestoreAuditRepository(client),
	}
}
