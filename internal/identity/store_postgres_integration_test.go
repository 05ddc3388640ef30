//go:build integration

package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"unify/internal/db"
	"unify/internal/identity"
	"unify/pkg/domain"
	dErrors "unify/pkg/domain-errors"
	"unify/pkg/testutil/containers"
)

type IdentityStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *identity.PostgresStore
}

func TestIdentityStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(db.Migrate(s.postgres.DB))
	s.store = identity.NewPostgresStore(s.postgres.DB)
}

func (s *IdentityStoreSuite) TearDownSuite() {
	s.postgres.Terminate(context.Background())
}

func (s *IdentityStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"local_accounts", "email_records", "global_identities")
	s.Require().NoError(err)
}

func (s *IdentityStoreSuite) TestCreateAndFindIdentity() {
	ctx := context.Background()
	muuid := domain.NewMUUID()

	s.Require().NoError(s.store.CreateIdentity(ctx, muuid, "pat@example.com"))

	found, err := s.store.FindIdentityByEmail(ctx, "pat@example.com")
	s.Require().NoError(err)
	s.Equal(muuid, found)

	history, err := s.store.ListEmails(ctx, muuid)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(1, history[0].Ord)
}

func (s *IdentityStoreSuite) TestUniqueEmailConstraint() {
	ctx := context.Background()

	s.Require().NoError(s.store.CreateIdentity(ctx, domain.NewMUUID(), "taken@example.com"))

	err := s.store.CreateIdentity(ctx, domain.NewMUUID(), "taken@example.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *IdentityStoreSuite) TestAppendEmailIncrementsOrd() {
	ctx := context.Background()
	muuid := domain.NewMUUID()

	s.Require().NoError(s.store.CreateIdentity(ctx, muuid, "one@example.com"))
	s.Require().NoError(s.store.AppendEmail(ctx, muuid, "two@example.com"))
	s.Require().NoError(s.store.AppendEmail(ctx, muuid, "three@example.com"))

	history, err := s.store.ListEmails(ctx, muuid)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	for i, rec := range history {
		s.Equal(i+1, rec.Ord)
	}
	s.Equal("three@example.com", history[2].Email)
}

func (s *IdentityStoreSuite) TestUpsertLocalAccountPreservesIdentityFields() {
	ctx := context.Background()
	muuid := domain.NewMUUID()
	s.Require().NoError(s.store.CreateIdentity(ctx, muuid, "account@example.com"))

	created, err := s.store.UpsertLocalAccount(ctx, identity.LocalAccount{
		MUUID:     muuid,
		BrandID:   "bosch",
		RegionID:  "EU",
		UUID:      "local-1",
		ToolUsage: []string{"drill"},
		Company:   "Acme GmbH",
	})
	s.Require().NoError(err)

	updated, err := s.store.UpsertLocalAccount(ctx, identity.LocalAccount{
		MUUID:     muuid,
		BrandID:   "bosch",
		RegionID:  "EU",
		UUID:      "local-1",
		ToolUsage: []string{"drill", "saw"},
		Company:   "Acme SE",
	})
	s.Require().NoError(err)
	s.Equal(created.CreatedAt, updated.CreatedAt)
	s.Equal([]string{"drill", "saw"}, updated.ToolUsage)
	s.Equal("Acme SE", updated.Company)
}

func (s *IdentityStoreSuite) TestFindAccountIdentityByUUIDJoinsLatestEmail() {
	ctx := context.Background()
	muuid := domain.NewMUUID()

	s.Require().NoError(s.store.CreateIdentity(ctx, muuid, "old@example.com"))
	s.Require().NoError(s.store.AppendEmail(ctx, muuid, "new@example.com"))
	_, err := s.store.UpsertLocalAccount(ctx, identity.LocalAccount{
		MUUID:    muuid,
		BrandID:  "bosch",
		RegionID: "EU",
		UUID:     "local-9",
	})
	s.Require().NoError(err)

	result, err := s.store.FindAccountIdentityByUUID(ctx, "local-9")
	s.Require().NoError(err)
	s.Require().NotNil(result)
	s.Equal(muuid, result.MUUID)
	s.Equal("new@example.com", result.Email)

	missing, err := s.store.FindAccountIdentityByUUID(ctx, "nobody")
	s.Require().NoError(err)
	s.Nil(missing)
}

func (s *IdentityStoreSuite) TestDeleteLocalAccounts() {
	ctx := context.Background()
	muuid := domain.NewMUUID()
	s.Require().NoError(s.store.CreateIdentity(ctx, muuid, "purge@example.com"))

	for _, region := range []string{"EU", "NA"} {
		_, err := s.store.UpsertLocalAccount(ctx, identity.LocalAccount{
			MUUID:    muuid,
			BrandID:  "bosch",
			RegionID: region,
			UUID:     "local-" + region,
		})
		s.Require().NoError(err)
	}

	deleted, err := s.store.DeleteLocalAccounts(ctx, muuid)
	s.Require().NoError(err)
	s.Equal(int64(2), deleted)
}
