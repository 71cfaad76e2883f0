// Package d365 provides types, interfaces, and helpers for working with the
// Dynamics 365 (Dataverse) Web API.
//
// # Overview
//
// The d365 package defines the configuration, the Record type and the
// interfaces for the record client (Client, CollectionClient). A concrete
// implementation is provided by the d365client package, which wires login,
// transport and addressing. Most consumers import d365client to construct a
// client and then interact with the interfaces exposed here.
//
// Getting a client
//
//	cli, err := d365client.New(ctx, &d365.Config{
//	  Hostname:     "contoso",
//	  ClientID:     "client-id",
//	  ClientSecret: "client-secret",
//	  TenantID:     "tenant-id",
//	})
//	if err != nil { log.Fatal(err) }
//
//	opportunities := cli.Collection("opportunities")
//
// # Collections
//
// Collection returns a lightweight handle bound to one entity set. Handles
// carry no mutable state, so any number may be used concurrently.
//
// # Outcomes
//
// Every operation that the service can reject returns ErrNoValue when the
// response status is not the expected one (200 for reads and queries, 204
// otherwise). No status code or body is retained; use an interceptor to
// observe them. Transport failures and malformed responses are reported as
// distinct errors.
//
// A read that follows @odata.nextLink and fails part way returns the records
// gathered so far alongside an *IncompleteReadError:
//
//	records, err := cli.Collection("accounts").Read(ctx, "")
//	if d365.IsIncomplete(err) {
//	  log.Printf("partial read: %d records: %v", len(records), err)
//	}
//
// # Queries
//
// QueryOptions encodes $select, $top, $filter, $orderby and $count in that
// order regardless of how the options were set:
//
//	body, err := cli.Collection("accounts").Query(ctx,
//	  d365.NewQueryOptions().WithTop(3).WithSelect("name"))
//	// GET .../accounts?$select=name&$top=3
//
// # Interceptors
//
// Config.Interceptors installs request and response hooks around every data
// request, for example HeaderInterceptor to send a Prefer header or the
// metrics interceptors to aggregate latency per endpoint.
package d365
