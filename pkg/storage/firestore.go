package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"github.com/tempowatch/tempowatch/pkg/log"
	"github.com/tempowatch/tempowatch/pkg/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Day records live at calendars/{calendar}/days/{YYYY-MM-DD}; the
// date-string document IDs keep range queries lexicographic.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	// Project ID may stay empty, the client can detect it.
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(calendar string) (*firestore.CollectionRef, error) {
	if calendar == "" {
		return nil, fmt.Errorf("calendar cannot be empty")
	}
	return f.client.Collection("calendars").Doc(calendar).Collection("days"), nil
}

// UpsertDayColor adds or updates the record for one day as a JSON blob.
// The document ID is the YYYY-MM-DD date for lexicographic range queries.
func (f *FirestoreProvider) UpsertDayColor(ctx context.Context, calendar string, day types.DayColor) error {
	if _, err := time.Parse(types.DateLayout, day.Date); err != nil {
		return fmt.Errorf("invalid day color date %q: %w", day.Date, err)
	}
	jsonBytes, err := json.Marshal(day)
	if err != nil {
		return fmt.Errorf("failed to marshal day color: %w", err)
	}

	coll, err := f.getCollection(calendar)
	if err != nil {
		return err
	}
	_, err = coll.Doc(day.Date).Set(ctx, map[string]interface{}{
		"json": string(jsonBytes),
		"date": day.Date,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert day color: %w", err)
	}
	return nil
}

// GetDayColor retrieves the record for a single day of a calendar.
func (f *FirestoreProvider) GetDayColor(ctx context.Context, calendar, date string) (types.DayColor, error) {
	coll, err := f.getCollection(calendar)
	if err != nil {
		return types.DayColor{}, err
	}
	doc, err := coll.Doc(date).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.DayColor{}, fmt.Errorf("%w: %s/%s", ErrDayNotFound, calendar, date)
		}
		return types.DayColor{}, fmt.Errorf("failed to fetch day color doc: %w", err)
	}

	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "day color doc missing json", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar))
		return types.DayColor{}, fmt.Errorf("day color document %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "day color doc json not string", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar))
		return types.DayColor{}, fmt.Errorf("day color document %s 'json' field is not string", doc.Ref.ID)
	}

	var d types.DayColor
	if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal day color", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar), slog.Any("err", err))
		return types.DayColor{}, fmt.Errorf("failed to unmarshal day color (id=%s): %w", doc.Ref.ID, err)
	}
	return d, nil
}

// GetDayColorHistory retrieves day records within [startDate, endDate).
// Uses document ID range queries for efficient filtering without reading all documents.
func (f *FirestoreProvider) GetDayColorHistory(ctx context.Context, calendar, startDate, endDate string) ([]types.DayColor, error) {
	coll, err := f.getCollection(calendar)
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDate)).
		Where(firestore.DocumentID, "<", coll.Doc(endDate)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var days []types.DayColor
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating day colors: %w", err)
		}

		val, err := doc.DataAt("json")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "day color doc missing json", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar), slog.Any("err", err))
			return nil, fmt.Errorf("day color document %s missing 'json' field: %w", doc.Ref.ID, err)
		}

		jsonStr, ok := val.(string)
		if !ok {
			log.Ctx(ctx).WarnContext(ctx, "day color doc json not string", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar))
			return nil, fmt.Errorf("day color document %s 'json' field is not string", doc.Ref.ID)
		}

		var d types.DayColor
		if err := json.Unmarshal([]byte(jsonStr), &d); err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal day color", slog.String("docID", doc.Ref.ID), slog.String("calendar", calendar), slog.Any("err", err))
			return nil, fmt.Errorf("failed to unmarshal day color (id=%s): %w", doc.Ref.ID, err)
		}
		days = append(days, d)
	}
	return days, nil
}

// GetLatestDayColorDate retrieves the date of the most recent stored record.
func (f *FirestoreProvider) GetLatestDayColorDate(ctx context.Context, calendar string) (string, error) {
	coll, err := f.getCollection(calendar)
	if err != nil {
		return "", err
	}

	// firestore automatically creates indexes for top-level fields
	iter := coll.
		OrderBy("date", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest day color doc: %w", err)
	}
	return doc.Ref.ID, nil
}
