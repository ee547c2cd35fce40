package oidc

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSecret_String(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert := assert.New(t)
		const want = RedactedClientSecret
		secret := ClientSecret("bob's phone number")
		assert.Equalf(want, secret.String(), "ClientSecret.String() = %v, want %v", secret.String(), want)
		assert.Equal(want, fmt.Sprintf("%s", secret))
	})
}

func TestClientSecret_MarshalJSON(t *testing.T) {
	t.Parallel()
	t.Run("redacted", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		want := fmt.Sprintf(`"%s"`, RedactedClientSecret)
		secret := ClientSecret("bob's phone number")
		got, err := secret.MarshalJSON()
		require.NoError(err)
		assert.Equalf([]byte(want), got, "ClientSecret.MarshalJSON() = %s, want %s", got, want)

		s := Settings{ClientSecret: secret}
		b, err := json.Marshal(s)
		require.NoError(err)
		assert.NotContains(string(b), "bob's phone number")
	})
}

func TestNewSettings(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		authority string
		clientID  string
		opt       []Option
		want      *Settings
		wantErrIs error
	}{
		{
			name:      "defaults",
			authority: "https://idp.example.com",
			clientID:  "client",
			want: &Settings{
				Authority:                           "https://idp.example.com",
				ClientID:                            "client",
				ResponseType:                        DefaultResponseType,
				Scope:                               DefaultScope,
				SilentRequestTimeout:                DefaultSilentRequestTimeout,
				CheckSessionInterval:                DefaultCheckSessionInterval,
				AccessTokenExpiringNotificationTime: DefaultAccessTokenExpiringNotificationTime,
			},
		},
		{
			name:      "all-options",
			authority: "https://idp.example.com",
			clientID:  "client",
			opt: []Option{
				WithClientSecret("secret"),
				WithRedirectURI("https://app.example.com/cb"),
				WithPostLogoutRedirectURI("https://app.example.com/bye"),
				WithPopupRedirectURI("https://app.example.com/popup"),
				WithSilentRedirectURI("https://app.example.com/silent"),
				WithScopes("openid", "email"),
				WithSilentRequestTimeout(time.Second),
				WithAutomaticSilentRenew(),
				WithoutIDTokenInSilentRenew(),
				WithMonitorSession(time.Minute * 5),
				WithRevokeAccessTokenOnSignout(),
				nil,
			},
			want: &Settings{
				Authority:                           "https://idp.example.com",
				ClientID:                            "client",
				ClientSecret:                        "secret",
				RedirectURI:                         "https://app.example.com/cb",
				PostLogoutRedirectURI:               "https://app.example.com/bye",
				PopupRedirectURI:                    "https://app.example.com/popup",
				SilentRedirectURI:                   "https://app.example.com/silent",
				ResponseType:                        DefaultResponseType,
				Scope:                               "openid email",
				SilentRequestTimeout:                time.Second,
				AutomaticSilentRenew:                true,
				ExcludeIDTokenInSilentRenew:         true,
				MonitorSession:                      true,
				CheckSessionInterval:                5 * time.Minute,
				RevokeAccessTokenOnSignout:          true,
				AccessTokenExpiringNotificationTime: DefaultAccessTokenExpiringNotificationTime,
			},
		},
		{
			name:      "missing-authority",
			clientID:  "client",
			wantErrIs: ErrInvalidParameter,
		},
		{
			name:      "invalid-redirect-uri",
			authority: "https://idp.example.com",
			clientID:  "client",
			opt:       []Option{WithRedirectURI("/cb")},
			wantErrIs: ErrInvalidParameter,
		},
		{
			name:      "negative-timeout",
			authority: "https://idp.example.com",
			clientID:  "client",
			opt:       []Option{WithSilentRequestTimeout(-time.Second)},
			wantErrIs: ErrInvalidParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewSettings(tt.authority, tt.clientID, tt.opt...)
			if tt.wantErrIs != nil {
				require.Error(err)
				assert.ErrorIs(err, tt.wantErrIs)
				assert.Nil(got)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	var nilSettings *Settings
	assert.ErrorIs(nilSettings.Validate(), ErrNilParameter)

	s := &Settings{
		Authority:                           "ftp://idp.example.com",
		PostLogoutRedirectURI:               "bye",
		CheckSessionInterval:                -time.Second,
		AccessTokenExpiringNotificationTime: -time.Second,
	}
	err := s.Validate()
	require.Error(err)
	var merr *multierror.Error
	require.ErrorAs(err, &merr)
	assert.Len(merr.Errors, 5, "every problem is reported")
	assert.ErrorIs(err, ErrInvalidParameter)

	valid := testSettings()
	valid.applyDefaults()
	assert.NoError(valid.Validate())
}
