package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fivetwenty-io/d365-client/internal/constants"
	"github.com/fivetwenty-io/d365-client/pkg/d365"
	"github.com/spf13/cobra"
)

// readPayload returns the JSON body given inline or in a file ("-" reads
// stdin). Exactly one source must be given.
func readPayload(data, file string, stdin io.Reader) (json.RawMessage, error) {
	if data != "" && file != "" {
		return nil, constants.ErrConflictingSource
	}

	raw := []byte(data)

	switch {
	case file == "-":
		content, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload from stdin: %w", err)
		}

		raw = content
	case file != "":
		// #nosec G304 -- the path is supplied by the operator
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}

		raw = content
	}

	if len(raw) == 0 {
		return nil, constants.ErrPayloadRequired
	}

	if !json.Valid(raw) {
		return nil, constants.ErrPayloadNotJSON
	}

	return json.RawMessage(raw), nil
}

func addPayloadFlags(cmd *cobra.Command, data, file *string) {
	cmd.Flags().StringVarP(data, "data", "d", "", "JSON payload")
	cmd.Flags().StringVarP(file, "file", "f", "", "file holding the JSON payload, - for stdin")
}

// NewCreateCommand creates the create command
func NewCreateCommand() *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "create COLLECTION",
		Short: "Create a record",
		Long:  "Create a record in an entity set and print the new record id",
		Example: `  d365 create accounts --data '{"name":"Contoso"}'
  d365 create opportunities --file opportunity.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(data, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			id, err := recordClient.Collection(args[0]).Create(context.Background(), payload)
			if err != nil {
				return fmt.Errorf("failed to create record: %w", err)
			}

			return renderProperties(cmd.OutOrStdout(), outputFormat(), map[string]interface{}{
				"collection": args[0],
				"id":         id,
			})
		},
	}

	addPayloadFlags(cmd, &data, &file)

	return cmd
}

// NewReadCommand creates the read command
func NewReadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read COLLECTION [ID]",
		Short: "Read records",
		Long: `Read one record by id, or every record of an entity set.

Without an id all pages are followed. If a later page fails the records read
so far are printed and the command exits with an error.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) > 1 {
				id = args[1]
			}

			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			records, readErr := recordClient.Collection(args[0]).Read(context.Background(), id)
			if readErr != nil && !d365.IsIncomplete(readErr) {
				return fmt.Errorf("failed to read %s: %w", args[0], readErr)
			}

			if err := renderRecords(cmd.OutOrStdout(), outputFormat(), records); err != nil {
				return err
			}

			return readErr
		},
	}

	return cmd
}

// NewUpdateCommand creates the update command
func NewUpdateCommand() *cobra.Command {
	var data, file string

	cmd := &cobra.Command{
		Use:   "update COLLECTION ID",
		Short: "Update a record",
		Long:  "Patch fields of an existing record; the record must exist",
		Args:  cobra.ExactArgs(constants.KeyValueArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(data, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			status, err := recordClient.Collection(args[0]).Update(context.Background(), args[1], payload)
			if err != nil {
				return fmt.Errorf("failed to update record %s: %w", args[1], err)
			}

			return renderStatus(cmd, "updated", args[0], args[1], status)
		},
	}

	addPayloadFlags(cmd, &data, &file)

	return cmd
}

// NewDeleteCommand creates the delete command
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete COLLECTION ID",
		Short: "Delete a record",
		Long:  "Delete a record by id",
		Args:  cobra.ExactArgs(constants.KeyValueArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			status, err := recordClient.Collection(args[0]).Delete(context.Background(), args[1])
			if err != nil {
				return fmt.Errorf("failed to delete record %s: %w", args[1], err)
			}

			return renderStatus(cmd, "deleted", args[0], args[1], status)
		},
	}
}

// NewAssociateCommand creates the associate command
func NewAssociateCommand() *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "associate COLLECTION PRIMARY_ID NAVIGATION SECONDARY_COLLECTION SECONDARY_ID",
		Short: "Associate two records",
		Long: `Add a reference from a record to another through a navigation property.

By default the reference is absolute. --update sends it relative, as used
when replacing a single-valued reference.`,
		Example: `  d365 associate opportunities 00000000-0000-0000-0000-000000000001 \
    opportunity_customer_accounts accounts 00000000-0000-0000-0000-000000000002`,
		Args: cobra.ExactArgs(constants.AssociateArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			status, err := recordClient.Collection(args[0]).
				Associate(context.Background(), args[1], args[2], args[3], args[4], update)
			if err != nil {
				return fmt.Errorf("failed to associate %s with %s: %w", args[1], args[4], err)
			}

			return renderStatus(cmd, "associated", args[0], args[1], status)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "send a relative reference")

	return cmd
}

// NewDisassociateCommand creates the disassociate command
func NewDisassociateCommand() *cobra.Command {
	var target d365.DisassociateTarget

	cmd := &cobra.Command{
		Use:   "disassociate COLLECTION PRIMARY_ID NAVIGATION",
		Short: "Remove an association",
		Long: `Remove a reference between records.

Give --secondary-collection and --secondary-id to remove one reference of a
collection-valued navigation property, or --collection-id alone to remove
the referenced record by its key.`,
		Args: cobra.ExactArgs(3), //nolint:mnd // COLLECTION PRIMARY_ID NAVIGATION
		RunE: func(cmd *cobra.Command, args []string) error {
			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			status, err := recordClient.Collection(args[0]).
				Disassociate(context.Background(), args[1], args[2], target)
			if err != nil {
				return fmt.Errorf("failed to disassociate %s: %w", args[1], err)
			}

			return renderStatus(cmd, "disassociated", args[0], args[1], status)
		},
	}

	cmd.Flags().StringVar(&target.SecondaryEntity, "secondary-collection", "", "entity set of the referenced record")
	cmd.Flags().StringVar(&target.SecondaryID, "secondary-id", "", "id of the referenced record")
	cmd.Flags().StringVar(&target.CollectionID, "collection-id", "", "key of the referenced record")

	return cmd
}

// NewQueryCommand creates the query command
func NewQueryCommand() *cobra.Command {
	var (
		selectFields []string
		top          int
		filter       string
		orderBy      string
		count        bool
	)

	cmd := &cobra.Command{
		Use:   "query COLLECTION",
		Short: "Query an entity set",
		Long:  "Run one OData query against an entity set and print the response",
		Example: `  d365 query accounts --select name,revenue --top 3
  d365 query accounts --filter "revenue gt 100000" --orderby "name desc" --count`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options := d365.NewQueryOptions().
				WithSelect(selectFields...).
				WithTop(top).
				WithFilter(filter).
				WithOrderBy(orderBy)

			if cmd.Flags().Changed("count") {
				options.WithCount(count)
			}

			recordClient, flush, err := createClient(cmd)
			if err != nil {
				return err
			}
			defer flush()

			body, err := recordClient.Collection(args[0]).Query(context.Background(), options)
			if err != nil {
				return fmt.Errorf("failed to query %s: %w", args[0], err)
			}

			return renderRaw(cmd.OutOrStdout(), outputFormat(), body)
		},
	}

	cmd.Flags().StringSliceVar(&selectFields, "select", nil, "fields to return")
	cmd.Flags().IntVar(&top, "top", 0, "maximum number of records")
	cmd.Flags().StringVar(&filter, "filter", "", "OData filter expression")
	cmd.Flags().StringVar(&orderBy, "orderby", "", "OData order expression")
	cmd.Flags().BoolVar(&count, "count", false, "include the total count")

	return cmd
}

func renderStatus(cmd *cobra.Command, action, collection, id string, status int) error {
	return renderProperties(cmd.OutOrStdout(), outputFormat(), map[string]interface{}{
		"action":     action,
		"collection": collection,
		"id":         id,
		"status":     status,
	})
}
