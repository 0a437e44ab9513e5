package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus is the outcome of a deal
type DealStatus string

const (
	DealStatusWon     DealStatus = "won"
	DealStatusLost    DealStatus = "lost"
	DealStatusPending DealStatus = "pending"
)

// Valid reports whether s is a known deal status
func (s DealStatus) Valid() bool {
	return s == DealStatusWon || s == DealStatusLost || s == DealStatusPending
}

// DefaultLeadStatus is used when a lead is created without a status
const DefaultLeadStatus = "New"

type Lead struct {
	ID          int32     `json:"id"`
	WorkspaceID int32     `json:"workspaceId"`
	Name        string    `json:"name"`
	Company     string    `json:"company"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// LeadPatch holds the optional fields of a lead edit
type LeadPatch struct {
	Name    *string
	Company *string
	Status  *string
}

// Apply returns a copy of l with the patch applied
func (p LeadPatch) Apply(l Lead) Lead {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	return l
}

type Deal struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	Name        string          `json:"name"`
	Company     string          `json:"company"`
	Value       decimal.Decimal `json:"value"`
	Status      DealStatus      `json:"status"`
	Date        time.Time       `json:"date"`
}

// DealPatch holds the optional fields of a deal edit
type DealPatch struct {
	Name    *string
	Company *string
	Value   *decimal.Decimal
	Status  *DealStatus
	Date    *time.Time
}

// Apply returns a copy of d with the patch applied
func (p DealPatch) Apply(d Deal) Deal {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Company != nil {
		d.Company = *p.Company
	}
	if p.Value != nil {
		d.Value = *p.Value
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Date != nil {
		d.Date = *p.Date
	}
	return d
}

type Meeting struct {
	ID            int32     `json:"id"`
	WorkspaceID   int32     `json:"workspaceId"`
	Name          string    `json:"name"`
	Company       string    `json:"company"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Status        string    `json:"status"`
}

// MeetingPatch holds the optional fields of a meeting edit
type MeetingPatch struct {
	Name          *string
	Company       *string
	ScheduledTime *time.Time
	Status        *string
}

// Apply returns a copy of m with the patch applied
func (p MeetingPatch) Apply(m Meeting) Meeting {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Company != nil {
		m.Company = *p.Company
	}
	if p.ScheduledTime != nil {
		m.ScheduledTime = *p.ScheduledTime
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	return m
}

// NewLead holds the caller-supplied fields of a lead
type NewLead struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Status  string `json:"status"`
}

// NewDeal holds the caller-supplied fields of a deal
type NewDeal struct {
	Name    string          `json:"name"`
	Company string          `json:"company"`
	Value   decimal.Decimal `json:"value"`
	Status  DealStatus      `json:"status"`
	Date    time.Time       `json:"date"`
}

// DealResult holds the rows written when a deal is added
type DealResult struct {
	Deal        Deal        `json:"deal"`
	Transaction Transaction `json:"transaction"`
	Project     *Project    `json:"project,omitempty"`
}

// NewMeeting holds the caller-supplied fields of a meeting
type NewMeeting struct {
	Name          string    `json:"name"`
	Company       string    `json:"company"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Status        string    `json:"status"`
}

type LeadList struct {
	Count  int     `json:"count"`
	Trend  float64 `json:"trend"`
	Recent []Lead  `json:"recent"`
}

type DealList struct {
	Count  int     `json:"count"`
	Trend  float64 `json:"trend"`
	Recent []Deal  `json:"recent"`
}

type MeetingList struct {
	Count    int       `json:"count"`
	Trend    float64   `json:"trend"`
	Upcoming []Meeting `json:"upcoming"`
}

// SalesAggregate holds leads, deals and meetings plus the revenue derived from deals
type SalesAggregate struct {
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	Leads        LeadList        `json:"leads"`
	Deals        DealList        `json:"deals"`
	Meetings     MeetingList     `json:"meetings"`
}

// Clone returns a deep copy of the aggregate
func (s SalesAggregate) Clone() SalesAggregate {
	s.Leads.Recent = cloneSlice(s.Leads.Recent)
	s.Deals.Recent = cloneSlice(s.Deals.Recent)
	s.Meetings.Upcoming = cloneSlice(s.Meetings.Upcoming)
	return s
}

// FindDeal returns the position of a deal by id, or -1
func (s *SalesAggregate) FindDeal(id int32) int {
	for i := range s.Deals.Recent {
		if s.Deals.Recent[i].ID == id {
			return i
		}
	}
	return -1
}

// FindLead returns the position of a lead by id, or -1
func (s *SalesAggregate) FindLead(id int32) int {
	for i := range s.Leads.Recent {
		if s.Leads.Recent[i].ID == id {
			return i
		}
	}
	return -1
}

// FindMeeting returns the position of a meeting by id, or -1
func (s *SalesAggregate) FindMeeting(id int32) int {
	for i := range s.Meetings.Upcoming {
		if s.Meetings.Upcoming[i].ID == id {
			return i
		}
	}
	return -1
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	Update(ctx context.Context, lead *Lead) (*Lead, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*Lead, error)
}

type DealRepository interface {
	Create(ctx context.Context, deal *Deal) (*Deal, error)
	Update(ctx context.Context, deal *Deal) (*Deal, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*Deal, error)
}

type MeetingRepository interface {
	Create(ctx context.Context, meeting *Meeting) (*Meeting, error)
	Update(ctx context.Context, meeting *Meeting) (*Meeting, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	ListByWorkspace(ctx context.Context, workspaceID int32) ([]*Meeting, error)
}
