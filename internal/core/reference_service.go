package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrClientNotFound   = errors.New("client not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrCurrencyNotFound = errors.New("currency not found")
	ErrEstimateNotFound = errors.New("estimate not found")
)

// ReferenceService serves the lookup data the invoice form loads up front:
// clients, projects, currencies, companies, active proposals, and estimates.
type ReferenceService interface {
	ListClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id int64) (*ClientDetail, error)
	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int64) (*ProjectDetail, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
	GetCurrency(ctx context.Context, id int64) (*Currency, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	ListActiveProposals(ctx context.Context) ([]Proposal, error)
	GetEstimate(ctx context.Context, id int64) (*Estimate, error)
}

type referenceService struct {
	pool *pgxpool.Pool
}

func NewReferenceService(pool *pgxpool.Pool) ReferenceService {
	return &referenceService{pool: pool}
}

func (s *referenceService) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, company, address, currency_id, created_at
		FROM clients
		ORDER BY client_name`)
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Company, &c.Address, &c.CurrencyID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (s *referenceService) GetClient(ctx context.Context, id int64) (*ClientDetail, error) {
	var d ClientDetail
	err := s.pool.QueryRow(ctx, `
		SELECT id, client_name, company, address, currency_id, created_at
		FROM clients
		WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Company, &d.Address, &d.CurrencyID, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("load client %d: %w", id, err)
	}

	if d.CurrencyID != nil {
		currency, err := s.GetCurrency(ctx, *d.CurrencyID)
		if err != nil && !errors.Is(err, ErrCurrencyNotFound) {
			return nil, err
		}
		d.Currency = currency
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, project_name, client_id, address
		FROM projects
		WHERE client_id = $1
		ORDER BY project_name`, id)
	if err != nil {
		return nil, fmt.Errorf("query projects for client %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.Address); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		d.Projects = append(d.Projects, p)
	}
	return &d, rows.Err()
}

func (s *referenceService) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, project_name, client_id, address
		FROM projects
		ORDER BY project_name`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.ClientID, &p.Address); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *referenceService) GetProject(ctx context.Context, id int64) (*ProjectDetail, error) {
	var d ProjectDetail
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_name, client_id, address
		FROM projects
		WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.ClientID, &d.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("load project %d: %w", id, err)
	}

	if d.ClientID != nil {
		var c Client
		err := s.pool.QueryRow(ctx, `
			SELECT id, client_name, company, address, currency_id, created_at
			FROM clients
			WHERE id = $1`, *d.ClientID,
		).Scan(&c.ID, &c.Name, &c.Company, &c.Address, &c.CurrencyID, &c.CreatedAt)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load client for project %d: %w", id, err)
		}
		if err == nil {
			d.Client = &c
		}
	}
	return &d, nil
}

func (s *referenceService) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, currency_code, name, rate
		FROM currencies
		ORDER BY currency_code`)
	if err != nil {
		return nil, fmt.Errorf("query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []Currency
	for rows.Next() {
		var c Currency
		if err := rows.Scan(&c.ID, &c.CurrencyCode, &c.Name, &c.Rate); err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

func (s *referenceService) GetCurrency(ctx context.Context, id int64) (*Currency, error) {
	var c Currency
	err := s.pool.QueryRow(ctx, `
		SELECT id, currency_code, name, rate
		FROM currencies
		WHERE id = $1`, id,
	).Scan(&c.ID, &c.CurrencyCode, &c.Name, &c.Rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCurrencyNotFound
		}
		return nil, fmt.Errorf("load currency %d: %w", id, err)
	}
	return &c, nil
}

func (s *referenceService) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (s *referenceService) ListActiveProposals(ctx context.Context) ([]Proposal, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, client_id, is_active
		FROM proposals
		WHERE is_active = true
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.Title, &p.ClientID, &p.IsActive); err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func (s *referenceService) GetEstimate(ctx context.Context, id int64) (*Estimate, error) {
	var (
		e           Estimate
		rawWorkInfo []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, client_id, other_client, project_id, other_project,
		       proposal_id, company_id, client_address, amount, currency_rate,
		       discount_label, discount_amount, work_description, notice,
		       reference, work_info
		FROM estimates
		WHERE id = $1`, id,
	).Scan(&e.ID, &e.ClientID, &e.OtherClient, &e.ProjectID, &e.OtherProject,
		&e.ProposalID, &e.CompanyID, &e.ClientAddress, &e.Amount, &e.CurrencyRate,
		&e.DiscountLabel, &e.DiscountAmount, &e.WorkDescription, &e.Notice,
		&e.Reference, &rawWorkInfo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("load estimate %d: %w", id, err)
	}

	var stored storedWorkInfo
	if len(rawWorkInfo) > 0 {
		if err := json.Unmarshal(rawWorkInfo, &stored); err != nil {
			return nil, fmt.Errorf("decode work info for estimate %d: %w", id, err)
		}
	}
	e.WorkInfo = WorkInfo{
		WorkPaidAmount: NormalizePaidAmounts(stored.WorkPaidAmount, false),
		PriceAmount:    stored.PriceAmount,
		IsPaid:         stored.IsPaid,
		IsCompleted:    stored.IsCompleted,
		WorkStartDate:  stored.WorkStartDate,
		WorkEndDate:    stored.WorkEndDate,
		WorkTitle:      stored.WorkTitle,
	}
	return &e, nil
}

// ComposedAddress builds the address block the form shows for a selected
// client: "Name (Company)" on the first line when a company exists, then the
// street address.
func (d *ClientDetail) ComposedAddress() string {
	switch {
	case d.Name != "" && d.Company != "" && d.Address != "":
		return fmt.Sprintf("%s (%s)\n%s", d.Name, d.Company, d.Address)
	case d.Name != "" && d.Company != "":
		return fmt.Sprintf("%s (%s)", d.Name, d.Company)
	case d.Name != "":
		return d.Name + "\n" + d.Address
	default:
		return d.Address
	}
}

// RateOrDefault returns the client currency's rate, or 1 when the client has
// no country currency on file.
func (d *ClientDetail) RateOrDefault() decimal.Decimal {
	if d.Currency == nil {
		return decimal.NewFromInt(1)
	}
	return d.Currency.Rate
}
