package commands

import (
	"fmt"
	"time"

	"github.com/ldapcore/ldapd/cmd/ldapdctl/cmdutil"
	"github.com/ldapcore/ldapd/pkg/adminclient"
	"github.com/ldapcore/ldapd/pkg/server/adminapi"
)

// newAuthedClient builds an adminclient.Client bound to the configured
// server, authenticated either by a pre-minted --token or by minting one
// locally from --signing-key.
func newAuthedClient() (*adminclient.Client, error) {
	serverURL, err := cmdutil.RequireServerURL()
	if err != nil {
		return nil, err
	}

	client := adminclient.New(serverURL)

	token := cmdutil.Flags.Token
	if token == "" {
		if cmdutil.Flags.SigningKey == "" {
			return nil, fmt.Errorf("no credentials: pass --token or --signing-key")
		}
		jwtService := adminapi.NewJWTService(cmdutil.Flags.SigningKey, time.Minute)
		token, err = jwtService.IssueAdminToken()
		if err != nil {
			return nil, fmt.Errorf("minting admin token: %w", err)
		}
	}

	return client.WithToken(token), nil
}
