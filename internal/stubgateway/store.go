package stubgateway

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"comptes-client/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrCompteNotFound    = errors.New("compte not found")
	ErrInsufficientFunds = errors.New("solde insuffisant")
)

type compteRecord struct {
	id           int64
	solde        decimal.Decimal
	dateCreation string
	typ          domain.AccountType
}

type transactionRecord struct {
	id       int64
	date     string
	montant  decimal.Decimal
	typ      domain.TransactionType
	compteID int64
}

// Store holds the gateway's comptes and transactions in memory. Balances
// are kept as decimals so repeated deposits and withdrawals do not drift.
type Store struct {
	mu           sync.RWMutex
	nextCompteID int64
	nextTxID     int64
	comptes      map[int64]*compteRecord
	transactions []transactionRecord
}

func NewStore() *Store {
	return &Store{
		comptes: make(map[int64]*compteRecord),
	}
}

func (s *Store) AllComptes() []domain.Compte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.comptes))
	for id := range s.comptes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	comptes := make([]domain.Compte, 0, len(ids))
	for _, id := range ids {
		comptes = append(comptes, s.comptes[id].toDomain())
	}
	return comptes
}

// Compte looks up a single compte by its id.
func (s *Store) Compte(id string) (domain.Compte, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.Compte{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.comptes[n]
	if !ok {
		return domain.Compte{}, false
	}
	return record.toDomain(), true
}

func (s *Store) SaveCompte(req domain.CompteRequest) (domain.Compte, error) {
	if req.Solde == nil {
		return domain.Compte{}, fmt.Errorf("solde is required")
	}
	if !req.Type.Valid() {
		return domain.Compte{}, fmt.Errorf("invalid compte type %q", req.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCompteID++
	record := &compteRecord{
		id:           s.nextCompteID,
		solde:        decimal.NewFromFloat(*req.Solde),
		dateCreation: req.DateCreation,
		typ:          req.Type,
	}
	s.comptes[record.id] = record
	return record.toDomain(), nil
}

// DeleteCompte removes the compte and its transactions. It reports false
// when no such compte exists.
func (s *Store) DeleteCompte(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comptes[id]; !ok {
		return false
	}
	delete(s.comptes, id)

	kept := s.transactions[:0]
	for _, tx := range s.transactions {
		if tx.compteID != id {
			kept = append(kept, tx)
		}
	}
	s.transactions = kept
	return true
}

func (s *Store) AllTransactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transactions := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		transactions = append(transactions, tx.toDomain())
	}
	return transactions
}

// AddTransaction records the transaction and applies it to the compte's
// balance.
func (s *Store) AddTransaction(req domain.TransactionRequest) (domain.Transaction, error) {
	if !req.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("invalid transaction type %q", req.Type)
	}
	if req.Montant == nil || *req.Montant <= 0 {
		return domain.Transaction{}, fmt.Errorf("montant must be a positive number")
	}
	compteID, err := strconv.ParseInt(req.CompteID, 10, 64)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %q", ErrCompteNotFound, req.CompteID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	compte, ok := s.comptes[compteID]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: %d", ErrCompteNotFound, compteID)
	}

	montant := decimal.NewFromFloat(*req.Montant)
	switch req.Type {
	case domain.Depot:
		compte.solde = compte.solde.Add(montant)
	case domain.Retrait:
		if compte.solde.LessThan(montant) {
			return domain.Transaction{}, fmt.Errorf("%w: compte %d", ErrInsufficientFunds, compteID)
		}
		compte.solde = compte.solde.Sub(montant)
	}

	s.nextTxID++
	record := transactionRecord{
		id:       s.nextTxID,
		date:     req.Date,
		montant:  montant,
		typ:      req.Type,
		compteID: compteID,
	}
	s.transactions = append(s.transactions, record)
	return record.toDomain(), nil
}

func (r *compteRecord) toDomain() domain.Compte {
	solde, _ := r.solde.Float64()
	return domain.Compte{
		ID:           strconv.FormatInt(r.id, 10),
		Solde:        solde,
		DateCreation: r.dateCreation,
		Type:         r.typ,
	}
}

func (r transactionRecord) toDomain() domain.Transaction {
	montant, _ := r.montant.Float64()
	return domain.Transaction{
		ID:      strconv.FormatInt(r.id, 10),
		Date:    r.date,
		Montant: montant,
		Type:    r.typ,
		Compte:  domain.CompteRef{ID: strconv.FormatInt(r.compteID, 10)},
	}
}
