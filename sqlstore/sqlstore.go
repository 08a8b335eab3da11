// Package sqlstore provides a CredentialStorage backed by a SQL database via
// bun. The default driver is the pure-Go sqlite build, so a file-backed
// authenticator needs no cgo.
package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/splitsecure/go-fido2-authenticator/ctap"
	"github.com/splitsecure/go-fido2-authenticator/secrets"
)

type credentialModel struct {
	bun.BaseModel `bun:"table:credentials"`
	ID            []byte    `bun:"id,pk"`
	Type          string    `bun:"type,notnull"`
	Alg           int       `bun:"alg,notnull"`
	RPID          string    `bun:"rp_id,notnull"`
	UserHandle    []byte    `bun:"user_handle,notnull"`
	PrivateKey    []byte    `bun:"private_key,notnull"`
	SignCount     uint32    `bun:"sign_count,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// Storage is a persistent secrets.CredentialStorage.
type Storage struct {
	db *bun.DB
}

var _ secrets.CredentialStorage = (*Storage)(nil)

// Open opens (or creates) the credential database at the given sqlite DSN.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening credential database")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().Model((*credentialModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating credentials table")
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) PutDiscoverable(ctx context.Context, credential *secrets.PrivateKeyCredentialSource) error {
	model := toModel(credential)
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("type = EXCLUDED.type").
		Set("alg = EXCLUDED.alg").
		Set("rp_id = EXCLUDED.rp_id").
		Set("user_handle = EXCLUDED.user_handle").
		Set("private_key = EXCLUDED.private_key").
		Set("sign_count = EXCLUDED.sign_count").
		Exec(ctx)
	return errors.Wrap(err, "storing credential")
}

func (s *Storage) Get(ctx context.Context, handle *ctap.CredentialHandle) (*secrets.PrivateKeyCredentialSource, error) {
	var model credentialModel
	err := s.db.NewSelect().
		Model(&model).
		Where("id = ?", []byte(handle.Descriptor.ID)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading credential")
	}
	return fromModel(&model), nil
}

func (s *Storage) ListDiscoverable(ctx context.Context, rpID ctap.RelyingPartyIdentifier) ([]ctap.CredentialHandle, error) {
	var models []credentialModel
	err := s.db.NewSelect().
		Model(&models).
		Where("rp_id = ?", string(rpID)).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing credentials")
	}

	handles := make([]ctap.CredentialHandle, 0, len(models))
	for i := range models {
		handles = append(handles, fromModel(&models[i]).Handle())
	}
	return handles, nil
}

func (s *Storage) ListSpecified(
	ctx context.Context,
	rpID ctap.RelyingPartyIdentifier,
	credentialList []ctap.PublicKeyCredentialDescriptor,
) ([]ctap.CredentialHandle, error) {
	all, err := s.ListDiscoverable(ctx, rpID)
	if err != nil {
		return nil, err
	}

	var handles []ctap.CredentialHandle
	for _, handle := range all {
		for _, descriptor := range credentialList {
			if handle.Descriptor.Matches(descriptor) {
				handles = append(handles, handle)
				break
			}
		}
	}
	return handles, nil
}

func toModel(credential *secrets.PrivateKeyCredentialSource) *credentialModel {
	return &credentialModel{
		ID:         credential.ID,
		Type:       string(credential.Type),
		Alg:        int(credential.Alg),
		RPID:       string(credential.RPID),
		UserHandle: credential.UserHandle,
		PrivateKey: credential.PrivateKeyDER,
		SignCount:  credential.SignCount,
		CreatedAt:  credential.CreatedAt,
	}
}

func fromModel(model *credentialModel) *secrets.PrivateKeyCredentialSource {
	return &secrets.PrivateKeyCredentialSource{
		Type:          ctap.PublicKeyCredentialType(model.Type),
		Alg:           ctap.COSEAlgorithmIdentifier(model.Alg),
		ID:            model.ID,
		RPID:          ctap.RelyingPartyIdentifier(model.RPID),
		UserHandle:    model.UserHandle,
		PrivateKeyDER: model.PrivateKey,
		SignCount:     model.SignCount,
		CreatedAt:     model.CreatedAt,
	}
}
