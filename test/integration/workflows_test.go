//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	accounts                    = "accounts"
	opportunities               = "opportunities"
	opportunityCustomerAccounts = "opportunity_customer_accounts"
)

// RecordWorkflowSuite runs record workflows against a live organisation.
type RecordWorkflowSuite struct {
	suite.Suite

	ctx    context.Context
	client d365.Client
}

func (s *RecordWorkflowSuite) SetupSuite() {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(s.T())

	s.ctx = context.Background()

	client, err := config.NewClient(s.ctx, s.T())
	s.Require().NoError(err)

	s.client = client
}

// createRecord creates a named record and deletes it when the test ends.
func (s *RecordWorkflowSuite) createRecord(collection, prefix string) string {
	name := GenerateTestName(prefix)

	id, err := s.client.Collection(collection).Create(s.ctx, map[string]string{"name": name})
	s.Require().NoError(err)
	s.Require().NotEmpty(id)

	s.T().Cleanup(func() {
		_, _ = s.client.Collection(collection).Delete(s.ctx, id)
	})

	return id
}

func (s *RecordWorkflowSuite) TestAccountLifecycle() {
	t := s.T()
	collection := s.client.Collection(accounts)

	id := s.createRecord(accounts, "it-account")

	records, err := collection.Read(s.ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].String("accountid"))

	status, err := collection.Update(s.ctx, id, map[string]string{"description": "updated by integration test"})
	require.NoError(t, err)
	assert.Equal(t, 204, status)

	records, err = collection.Read(s.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated by integration test", records[0].String("description"))

	status, err = collection.Delete(s.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 204, status)

	_, err = collection.Read(s.ctx, id)
	require.ErrorIs(t, err, d365.ErrNoValue)
}

func (s *RecordWorkflowSuite) TestUnknownRecordsAreNoValue() {
	t := s.T()
	collection := s.client.Collection(accounts)

	_, err := collection.Create(s.ctx, map[string]string{"random": GenerateTestName("random")})
	require.ErrorIs(t, err, d365.ErrNoValue)

	_, err = collection.Read(s.ctx, RandomID())
	require.ErrorIs(t, err, d365.ErrNoValue)

	_, err = collection.Update(s.ctx, RandomID(), map[string]string{"name": "nobody"})
	require.ErrorIs(t, err, d365.ErrNoValue)

	_, err = collection.Delete(s.ctx, RandomID())
	require.ErrorIs(t, err, d365.ErrNoValue)
}

func (s *RecordWorkflowSuite) TestReadAllFollowsPages() {
	records, err := s.client.Collection(accounts).Read(s.ctx, "")
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), records)
}

func (s *RecordWorkflowSuite) TestAssociateAndDisassociate() {
	t := s.T()

	accountID := s.createRecord(accounts, "it-account")
	opportunityID := s.createRecord(opportunities, "it-opportunity")
	collection := s.client.Collection(accounts)

	_, err := collection.Associate(s.ctx, RandomID(), opportunityCustomerAccounts, opportunities, opportunityID, false)
	require.ErrorIs(t, err, d365.ErrNoValue)

	status, err := collection.Associate(s.ctx, accountID, opportunityCustomerAccounts, opportunities, opportunityID, false)
	require.NoError(t, err)
	assert.Equal(t, 204, status)

	status, err = collection.Disassociate(s.ctx, accountID, opportunityCustomerAccounts, d365.DisassociateTarget{
		SecondaryEntity: opportunities,
		SecondaryID:     opportunityID,
	})
	require.NoError(t, err)
	assert.Equal(t, 204, status)

	_, err = collection.Disassociate(s.ctx, accountID, opportunityCustomerAccounts, d365.DisassociateTarget{})
	require.ErrorIs(t, err, d365.ErrInvalidDisassociation)
}

func (s *RecordWorkflowSuite) TestQuery() {
	t := s.T()
	collection := s.client.Collection(accounts)

	body, err := collection.Query(s.ctx, d365.NewQueryOptions().WithSelect("name"))
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(body)))

	const top = 3

	body, err = collection.Query(s.ctx, d365.NewQueryOptions().WithSelect("name").WithTop(top).WithCount(true))
	require.NoError(t, err)

	var result struct {
		Value []d365.Record `json:"value"`
	}

	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.LessOrEqual(t, len(result.Value), top)

	_, err = collection.Query(s.ctx, d365.NewQueryOptions().WithFilter("nosuchfield eq 1"))
	require.ErrorIs(t, err, d365.ErrNoValue)
}

func TestRecordWorkflowSuite(t *testing.T) {
	suite.Run(t, new(RecordWorkflowSuite))
}

func TestLoginRejectsBadSecret(t *testing.T) {
	config := LoadTestConfig()
	config.SkipIfMissingConfig(t)

	config.ClientSecret = "not-the-secret"

	_, err := config.NewClient(context.Background(), t)
	require.ErrorIs(t, err, d365.ErrNoToken)
}
