// Package d365client provides the primary entry point for constructing a
// Dynamics 365 Web API client that implements the d365.Client interface.
//
// It layers login, HTTP transport and record addressing on top of the
// interfaces and types defined in the d365 package. Most applications import
// d365client to build a client, then select collections through the returned
// d365.Client.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/d365-client/pkg/d365"
//	  "github.com/fivetwenty-io/d365-client/pkg/d365client"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Log in with an app registration. The token is obtained once and
//	  // never refreshed.
//	  cli, err := d365client.New(ctx, &d365.Config{
//	    Hostname:     "contoso",
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    TenantID:     "tenant-id",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with a bearer token you already have:
//	  cli, err = d365client.NewWithToken("contoso", "eyJ0eXAiOi...")
//
//	  accounts := cli.Collection("accounts")
//
//	  id, err := accounts.Create(ctx, `{"name": "Contoso Ltd"}`)
//	  if d365.IsNoValue(err) {
//	    // the service rejected the create
//	  }
//
//	  records, err := accounts.Read(ctx, id)
//	  _ = records
//
//	  body, err := accounts.Query(ctx, d365.NewQueryOptions().WithSelect("name").WithTop(3))
//	  _ = body
//	}
//
// # Outcomes
//
// Operations return d365.ErrNoValue when the service answers with any status
// other than the one the operation treats as success. Transport failures are
// returned wrapped and do not match d365.ErrNoValue.
//
// # Timeouts
//
// Config.HTTPTimeout of zero leaves requests bounded only by the context
// passed to each call.
package d365client
