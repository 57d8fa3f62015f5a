// Package screens wires the comptes and transactions gateways into
// generic list panels.
package screens

import (
	"context"
	"fmt"
	"strconv"

	"comptes-client/internal/client"
	"comptes-client/internal/domain"
	"comptes-client/internal/panel"
)

type CompteGateway interface {
	AllComptes(ctx context.Context) ([]domain.Compte, error)
	SaveCompte(ctx context.Context, input domain.CompteRequest) (*domain.Compte, error)
	DeleteCompte(ctx context.Context, id int64) (bool, error)
}

type TransactionGateway interface {
	AllTransactions(ctx context.Context) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, input domain.TransactionRequest) (*domain.Transaction, error)
}

func CompteSchema() panel.Schema {
	return panel.Schema{
		Title: "Add New Compte",
		Fields: []panel.FieldSpec{
			{Name: "solde", Label: "Solde", Kind: panel.Numeric},
			{Name: "type", Label: "Type", Kind: panel.Enum, Choices: accountTypeChoices(), Default: string(domain.Courant)},
		},
		DateField: "dateCreation",
	}
}

func TransactionSchema() panel.Schema {
	return panel.Schema{
		Title: "Add New Transaction",
		Fields: []panel.FieldSpec{
			{Name: "type", Label: "Transaction Type", Kind: panel.Enum, Choices: transactionTypeChoices(), Default: string(domain.Depot)},
			{Name: "montant", Label: "Montant", Kind: panel.Numeric},
			{Name: "compteId", Label: "Compte ID", Kind: panel.Text},
		},
		DateField: "date",
	}
}

func Comptes(gw CompteGateway) panel.Source[domain.Compte] {
	return panel.Source[domain.Compte]{
		Name: "Comptes",
		Load: gw.AllComptes,
		ID:   func(c domain.Compte) string { return c.ID },
		Summary: func(c domain.Compte) []panel.Field {
			return []panel.Field{
				{Label: "Type", Value: string(c.Type)},
				{Label: "Solde", Value: formatAmount(c.Solde)},
			}
		},
		Details: func(c domain.Compte) []panel.Field {
			return []panel.Field{{Label: "Date Creation", Value: c.DateCreation}}
		},
		Create: func(ctx context.Context, p panel.Payload) error {
			_, err := gw.SaveCompte(ctx, CompteRequest(p))
			return err
		},
		Delete: func(ctx context.Context, id string) error {
			numericID, err := client.ParseID(id)
			if err != nil {
				return err
			}
			deleted, err := gw.DeleteCompte(ctx, numericID)
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("gateway did not delete compte %s", id)
			}
			return nil
		},
		Schema: CompteSchema(),
	}
}

func Transactions(gw TransactionGateway) panel.Source[domain.Transaction] {
	return panel.Source[domain.Transaction]{
		Name: "Transactions",
		Load: gw.AllTransactions,
		ID:   func(t domain.Transaction) string { return t.ID },
		Summary: func(t domain.Transaction) []panel.Field {
			return []panel.Field{
				{Label: "Type", Value: string(t.Type)},
				{Label: "Montant", Value: formatAmount(t.Montant)},
			}
		},
		Details: func(t domain.Transaction) []panel.Field {
			return []panel.Field{
				{Label: "Date", Value: t.Date},
				{Label: "Compte ID", Value: t.Compte.ID},
			}
		},
		Create: func(ctx context.Context, p panel.Payload) error {
			_, err := gw.AddTransaction(ctx, TransactionRequest(p))
			return err
		},
		Schema: TransactionSchema(),
	}
}

// CompteRequest maps a compte dialog payload to the saveCompte input.
func CompteRequest(p panel.Payload) domain.CompteRequest {
	return domain.CompteRequest{
		Solde:        number(p, "solde"),
		DateCreation: text(p, "dateCreation"),
		Type:         domain.AccountType(text(p, "type")),
	}
}

// TransactionRequest maps a transaction dialog payload to the
// addTransaction input. compteId stays a string.
func TransactionRequest(p panel.Payload) domain.TransactionRequest {
	return domain.TransactionRequest{
		Type:     domain.TransactionType(text(p, "type")),
		Montant:  number(p, "montant"),
		Date:     text(p, "date"),
		CompteID: text(p, "compteId"),
	}
}

func number(p panel.Payload, key string) *float64 {
	if n, ok := p[key].(float64); ok {
		return &n
	}
	return nil
}

func text(p panel.Payload, key string) string {
	s, _ := p[key].(string)
	return s
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func accountTypeChoices() []string {
	var choices []string
	for _, t := range domain.AccountTypes() {
		choices = append(choices, string(t))
	}
	return choices
}

func transactionTypeChoices() []string {
	var choices []string
	for _, t := range domain.TransactionTypes() {
		choices = append(choices, string(t))
	}
	return choices
}
