package d365_test

import (
	"testing"

	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOAuthVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    d365.OAuthVersion
		wantErr bool
	}{
		{input: "", want: d365.OAuthV1},
		{input: "1", want: d365.OAuthV1},
		{input: "v1", want: d365.OAuthV1},
		{input: "V1", want: d365.OAuthV1},
		{input: "2", want: d365.OAuthV2},
		{input: "v2", want: d365.OAuthV2},
		{input: "V2", want: d365.OAuthV2},
		{input: "3", wantErr: true},
		{input: "oauth", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := d365.ParseOAuthVersion(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, d365.ErrUnsupportedOAuthVersion)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOAuthVersion_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v1", d365.OAuthV1.String())
	assert.Equal(t, "v2", d365.OAuthV2.String())
	assert.Equal(t, "unknown", d365.OAuthVersion(9).String())
}

func TestRecord_String(t *testing.T) {
	t.Parallel()

	record := d365.Record{"name": "Contoso", "revenue": 10.5}

	assert.Equal(t, "Contoso", record.String("name"))
	assert.Empty(t, record.String("revenue"))
	assert.Empty(t, record.String("missing"))
}

func TestConfig_Credentials(t *testing.T) {
	t.Parallel()

	config := &d365.Config{Hostname: "contoso", ClientID: "id", ClientSecret: "secret", TenantID: "tenant"}

	assert.Equal(t, d365.Credentials{
		Hostname:     "contoso",
		ClientID:     "id",
		ClientSecret: "secret",
		TenantID:     "tenant",
	}, config.Credentials())
}
