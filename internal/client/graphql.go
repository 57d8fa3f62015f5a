package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"comptes-client/internal/domain"

	"github.com/charmbracelet/log"
	"github.com/machinebox/graphql"
)

const (
	allComptesQuery = `
query {
  allComptes {
    id
    solde
    dateCreation
    type
  }
}`

	saveCompteMutation = `
mutation SaveCompte($input: CompteRequest!) {
  saveCompte(compte: $input) {
    id
    solde
    dateCreation
    type
  }
}`

	deleteCompteMutation = `
mutation DeleteCompte($id: ID!) {
  deleteCompte(id: $id)
}`

	allTransactionsQuery = `
query {
  allTransactions {
    id
    date
    montant
    type
    compte {
      id
    }
  }
}`

	addTransactionMutation = `
mutation AddTransaction($input: TransactionRequest!) {
  addTransaction(transaction: $input) {
    id
    date
    montant
    type
    compte {
      id
    }
  }
}`
)

// Client talks to the comptes GraphQL gateway. It keeps no cache: every
// read is a fresh round trip.
type Client struct {
	gql     *graphql.Client
	timeout time.Duration
	log     *log.Logger
}

type Options struct {
	Timeout    time.Duration
	HTTPClient *http.Client
	LogOutput  io.Writer
}

func NewClient(endpoint string, opts Options) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("failed to create client: empty gateway endpoint")
	}
	if opts.LogOutput == nil {
		opts.LogOutput = io.Discard
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	logger := log.NewWithOptions(opts.LogOutput, log.Options{Prefix: "graphql-client"})
	gql := graphql.NewClient(endpoint, graphql.WithHTTPClient(opts.HTTPClient))
	gql.Log = func(s string) { logger.Debug(s) }

	return &Client{
		gql:     gql,
		timeout: opts.Timeout,
		log:     logger,
	}, nil
}

func (c *Client) AllComptes(ctx context.Context) ([]domain.Compte, error) {
	var resp struct {
		AllComptes []domain.Compte `json:"allComptes"`
	}
	if err := c.run(ctx, graphql.NewRequest(allComptesQuery), &resp); err != nil {
		return nil, fmt.Errorf("failed to list comptes: %w", err)
	}

	c.log.Info("successfully fetched comptes", "count", len(resp.AllComptes))
	return resp.AllComptes, nil
}

func (c *Client) SaveCompte(ctx context.Context, input domain.CompteRequest) (*domain.Compte, error) {
	req := graphql.NewRequest(saveCompteMutation)
	req.Var("input", input)

	var resp struct {
		SaveCompte domain.Compte `json:"saveCompte"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to save compte: %w", err)
	}

	c.log.Info("compte saved", "compte_id", resp.SaveCompte.ID, "type", resp.SaveCompte.Type)
	return &resp.SaveCompte, nil
}

// DeleteCompte reports whether the gateway deleted the compte.
func (c *Client) DeleteCompte(ctx context.Context, id int64) (bool, error) {
	req := graphql.NewRequest(deleteCompteMutation)
	req.Var("id", id)

	var resp struct {
		DeleteCompte bool `json:"deleteCompte"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return false, fmt.Errorf("failed to delete compte %d: %w", id, err)
	}

	c.log.Info("compte delete requested", "compte_id", id, "deleted", resp.DeleteCompte)
	return resp.DeleteCompte, nil
}

func (c *Client) AllTransactions(ctx context.Context) ([]domain.Transaction, error) {
	var resp struct {
		AllTransactions []domain.Transaction `json:"allTransactions"`
	}
	if err := c.run(ctx, graphql.NewRequest(allTransactionsQuery), &resp); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	c.log.Info("successfully fetched transactions", "count", len(resp.AllTransactions))
	return resp.AllTransactions, nil
}

func (c *Client) AddTransaction(ctx context.Context, input domain.TransactionRequest) (*domain.Transaction, error) {
	req := graphql.NewRequest(addTransactionMutation)
	req.Var("input", input)

	var resp struct {
		AddTransaction domain.Transaction `json:"addTransaction"`
	}
	if err := c.run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}

	c.log.Info("transaction created successfully",
		"tx_id", resp.AddTransaction.ID, "compte_id", resp.AddTransaction.Compte.ID, "type", resp.AddTransaction.Type)
	return &resp.AddTransaction, nil
}

// run bounds a single request by the configured timeout.
func (c *Client) run(ctx context.Context, req *graphql.Request, resp any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.gql.Run(ctx, req, resp); err != nil {
		c.log.Error("gateway request failed", "err", err)
		return err
	}
	return nil
}

// ParseID converts an opaque gateway id to the number deleteCompte expects.
func ParseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid compte id %q: %w", id, err)
	}
	return n, nil
}
