package stubgateway

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"comptes-client/internal/domain"

	graphql "github.com/graph-gophers/graphql-go"
)

const schemaSDL = `
schema {
  query: Query
  mutation: Mutation
}

enum TypeCompte {
  COURANT
  EPARGNE
}

enum TypeTransaction {
  DEPOT
  RETRAIT
}

type Compte {
  id: ID!
  solde: Float!
  dateCreation: String
  type: TypeCompte!
}

type Transaction {
  id: ID!
  date: String
  montant: Float!
  type: TypeTransaction!
  compte: Compte!
}

input CompteRequest {
  solde: Float
  dateCreation: String
  type: TypeCompte!
}

input TransactionRequest {
  type: TypeTransaction!
  montant: Float
  date: String
  compteId: ID!
}

type Query {
  allComptes: [Compte!]!
  allTransactions: [Transaction!]!
}

type Mutation {
  saveCompte(compte: CompteRequest!): Compte!
  deleteCompte(id: ID!): Boolean!
  addTransaction(transaction: TransactionRequest!): Transaction!
}
`

// NewSchema binds the gateway schema to the store. The schema text is
// fixed, so a parse failure panics.
func NewSchema(store *Store) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, &resolver{store: store})
}

// gatewayID is a GraphQL ID that must name a whole number. Clients send it
// either as a JSON number or as a string.
type gatewayID int64

func (gatewayID) ImplementsGraphQLType(name string) bool {
	return name == "ID"
}

func (id *gatewayID) UnmarshalGraphQL(input interface{}) error {
	switch v := input.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%q is not an id", v)
		}
		*id = gatewayID(n)
	case int32:
		*id = gatewayID(v)
	case int:
		*id = gatewayID(v)
	case int64:
		*id = gatewayID(v)
	case float64:
		if v != math.Trunc(v) || math.Abs(v) >= 1<<63 {
			return fmt.Errorf("%v is not a whole number id", v)
		}
		*id = gatewayID(v)
	default:
		return errors.New("id must be a number or a string")
	}
	return nil
}

func (id gatewayID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type compteInput struct {
	Solde        *float64
	DateCreation *string
	Type         string
}

type transactionInput struct {
	Type     string
	Montant  *float64
	Date     *string
	CompteID gatewayID
}

type resolver struct {
	store *Store
}

func (r *resolver) AllComptes() []*compteResolver {
	comptes := r.store.AllComptes()
	out := make([]*compteResolver, 0, len(comptes))
	for _, c := range comptes {
		out = append(out, &compteResolver{c: c})
	}
	return out
}

func (r *resolver) AllTransactions() []*transactionResolver {
	transactions := r.store.AllTransactions()
	out := make([]*transactionResolver, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, &transactionResolver{tx: tx, store: r.store})
	}
	return out
}

func (r *resolver) SaveCompte(args struct{ Compte compteInput }) (*compteResolver, error) {
	compte, err := r.store.SaveCompte(domain.CompteRequest{
		Solde:        args.Compte.Solde,
		DateCreation: deref(args.Compte.DateCreation),
		Type:         domain.AccountType(args.Compte.Type),
	})
	if err != nil {
		return nil, err
	}
	return &compteResolver{c: compte}, nil
}

func (r *resolver) DeleteCompte(args struct{ ID gatewayID }) bool {
	return r.store.DeleteCompte(int64(args.ID))
}

func (r *resolver) AddTransaction(args struct{ Transaction transactionInput }) (*transactionResolver, error) {
	tx, err := r.store.AddTransaction(domain.TransactionRequest{
		Type:     domain.TransactionType(args.Transaction.Type),
		Montant:  args.Transaction.Montant,
		Date:     deref(args.Transaction.Date),
		CompteID: args.Transaction.CompteID.String(),
	})
	if err != nil {
		return nil, err
	}
	return &transactionResolver{tx: tx, store: r.store}, nil
}

type compteResolver struct {
	c domain.Compte
}

func (r *compteResolver) ID() graphql.ID { return graphql.ID(r.c.ID) }
func (r *compteResolver) Solde() float64 { return r.c.Solde }
func (r *compteResolver) DateCreation() *string { return &r.c.DateCreation }
func (r *compteResolver) Type() string { return string(r.c.Type) }

type transactionResolver struct {
	tx    domain.Transaction
	store *Store
}

func (r *transactionResolver) ID() graphql.ID { return graphql.ID(r.tx.ID) }
func (r *transactionResolver) Date() *string { return &r.tx.Date }
func (r *transactionResolver) Montant() float64 { return r.tx.Montant }
func (r *transactionResolver) Type() string { return string(r.tx.Type) }

// Compte resolves the full compte when it still exists and falls back to
// the bare reference otherwise.
func (r *transactionResolver) Compte() *compteResolver {
	if c, ok := r.store.Compte(r.tx.Compte.ID); ok {
		return &compteResolver{c: c}
	}
	return &compteResolver{c: domain.Compte{ID: r.tx.Compte.ID}}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
