package service

import (
	"context"
	"sort"
	"strings"

	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
)

// AddLead inserts a lead and prepends it to the recent list
func (s *DashboardState) AddLead(ctx context.Context, input domain.NewLead) (*domain.Lead, error) {
	var created *domain.Lead
	err := s.run("add_lead", func() error {
		name, err := validateName("name", input.Name)
		if err != nil {
			return err
		}
		company, err := validateName("company", input.Company)
		if err != nil {
			return err
		}
		status := strings.TrimSpace(input.Status)
		if status == "" {
			status = domain.DefaultLeadStatus
		}

		row, err := s.repos.Leads.Create(ctx, &domain.Lead{
			WorkspaceID: s.workspaceID,
			Name:        name,
			Company:     company,
			Status:      status,
		})
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("insert lead", err)
		}

		s.mu.Lock()
		leads := &s.sales.Leads
		leads.Recent = append([]domain.Lead{*row}, leads.Recent...)
		leads.Trend = countTrend(leads.Count, leads.Count+1)
		leads.Count++
		s.mu.Unlock()

		created = row
		s.publishEvent(websocket.Created(websocket.EntityTypeLead, row))
		return nil
	})
	return created, err
}

// EditLead updates a lead in place
func (s *DashboardState) EditLead(ctx context.Context, id int32, patch domain.LeadPatch) (*domain.Lead, error) {
	var updated *domain.Lead
	err := s.run("edit_lead", func() error {
		s.mu.RLock()
		idx := s.sales.FindLead(id)
		var current domain.Lead
		if idx >= 0 {
			current = s.sales.Leads.Recent[idx]
		}
		s.mu.RUnlock()
		if idx < 0 {
			return domain.NewNotFoundError("lead", id)
		}

		if err := trimPatchField("name", &patch.Name); err != nil {
			return err
		}
		if err := trimPatchField("company", &patch.Company); err != nil {
			return err
		}
		if err := trimPatchField("status", &patch.Status); err != nil {
			return err
		}

		next := patch.Apply(current)
		row, err := s.repos.Leads.Update(ctx, &next)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update lead", err)
		}

		s.mu.Lock()
		if i := s.sales.FindLead(id); i >= 0 {
			s.sales.Leads.Recent[i] = *row
		}
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeLead, row))
		return nil
	})
	return updated, err
}

// RemoveLead deletes a lead by id. An id that is not present locally is a no-op.
func (s *DashboardState) RemoveLead(ctx context.Context, id int32) error {
	return s.run("remove_lead", func() error {
		s.mu.RLock()
		idx := s.sales.FindLead(id)
		s.mu.RUnlock()
		if idx < 0 {
			s.logger.Warn().Int32("lead_id", id).Msg("Lead not in dashboard, nothing to remove")
			return nil
		}
		return s.deleteLead(ctx, id)
	})
}

// RemoveLeadByCompany deletes every lead whose company matches, ignoring case
// and surrounding space. It returns the removed leads; no match is a no-op.
func (s *DashboardState) RemoveLeadByCompany(ctx context.Context, company string) ([]domain.Lead, error) {
	var removed []domain.Lead
	err := s.run("remove_lead_by_company", func() error {
		company = strings.TrimSpace(company)
		if company == "" {
			return domain.NewValidationError("company", "is required")
		}

		s.mu.RLock()
		var matches []domain.Lead
		for _, l := range s.sales.Leads.Recent {
			if strings.EqualFold(strings.TrimSpace(l.Company), company) {
				matches = append(matches, l)
			}
		}
		s.mu.RUnlock()

		if len(matches) == 0 {
			s.logger.Warn().Str("company", company).Msg("No lead matches company, nothing to remove")
			return nil
		}

		for _, l := range matches {
			if err := s.deleteLead(ctx, l.ID); err != nil {
				return err
			}
			removed = append(removed, l)
		}
		return nil
	})
	return removed, err
}

// deleteLead removes one lead remotely then locally. Caller holds writeMu.
func (s *DashboardState) deleteLead(ctx context.Context, id int32) error {
	if err := s.repos.Leads.Delete(ctx, s.workspaceID, id); err != nil {
		return domain.NewRemoteWriteError("delete lead", err)
	}

	s.mu.Lock()
	var removed domain.Lead
	leads := &s.sales.Leads
	if i := s.sales.FindLead(id); i >= 0 {
		removed = leads.Recent[i]
		leads.Recent = append(leads.Recent[:i:i], leads.Recent[i+1:]...)
		leads.Count--
	}
	s.mu.Unlock()

	s.publishEvent(websocket.Deleted(websocket.EntityTypeLead, removed))
	return nil
}

// AddMeeting inserts a meeting, keeping the upcoming list ordered by time
func (s *DashboardState) AddMeeting(ctx context.Context, input domain.NewMeeting) (*domain.Meeting, error) {
	var created *domain.Meeting
	err := s.run("add_meeting", func() error {
		name, err := validateName("name", input.Name)
		if err != nil {
			return err
		}
		company, err := validateName("company", input.Company)
		if err != nil {
			return err
		}
		if input.ScheduledTime.IsZero() {
			return domain.NewValidationError("scheduledTime", "is required")
		}
		status := strings.TrimSpace(input.Status)
		if status == "" {
			status = "scheduled"
		}

		row, err := s.repos.Meetings.Create(ctx, &domain.Meeting{
			WorkspaceID:   s.workspaceID,
			Name:          name,
			Company:       company,
			ScheduledTime: input.ScheduledTime,
			Status:        status,
		})
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("insert meeting", err)
		}

		s.mu.Lock()
		meetings := &s.sales.Meetings
		meetings.Upcoming = insertMeeting(meetings.Upcoming, *row)
		meetings.Trend = countTrend(meetings.Count, meetings.Count+1)
		meetings.Count++
		s.mu.Unlock()

		created = row
		s.publishEvent(websocket.Created(websocket.EntityTypeMeeting, row))
		return nil
	})
	return created, err
}

// EditMeeting updates a meeting and re-sorts it by scheduled time
func (s *DashboardState) EditMeeting(ctx context.Context, id int32, patch domain.MeetingPatch) (*domain.Meeting, error) {
	var updated *domain.Meeting
	err := s.run("edit_meeting", func() error {
		s.mu.RLock()
		idx := s.sales.FindMeeting(id)
		var current domain.Meeting
		if idx >= 0 {
			current = s.sales.Meetings.Upcoming[idx]
		}
		s.mu.RUnlock()
		if idx < 0 {
			return domain.NewNotFoundError("meeting", id)
		}

		if err := trimPatchField("name", &patch.Name); err != nil {
			return err
		}
		if err := trimPatchField("company", &patch.Company); err != nil {
			return err
		}
		if err := trimPatchField("status", &patch.Status); err != nil {
			return err
		}
		if patch.ScheduledTime != nil && patch.ScheduledTime.IsZero() {
			return domain.NewValidationError("scheduledTime", "is required")
		}

		next := patch.Apply(current)
		row, err := s.repos.Meetings.Update(ctx, &next)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update meeting", err)
		}

		s.mu.Lock()
		meetings := &s.sales.Meetings
		if i := s.sales.FindMeeting(id); i >= 0 {
			meetings.Upcoming = append(meetings.Upcoming[:i:i], meetings.Upcoming[i+1:]...)
			meetings.Upcoming = insertMeeting(meetings.Upcoming, *row)
		}
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeMeeting, row))
		return nil
	})
	return updated, err
}

// RemoveMeeting deletes a meeting. An id that is not present locally is a no-op.
func (s *DashboardState) RemoveMeeting(ctx context.Context, id int32) error {
	return s.run("remove_meeting", func() error {
		s.mu.RLock()
		idx := s.sales.FindMeeting(id)
		s.mu.RUnlock()
		if idx < 0 {
			s.logger.Warn().Int32("meeting_id", id).Msg("Meeting not in dashboard, nothing to remove")
			return nil
		}

		if err := s.repos.Meetings.Delete(ctx, s.workspaceID, id); err != nil {
			return domain.NewRemoteWriteError("delete meeting", err)
		}

		s.mu.Lock()
		var removed domain.Meeting
		meetings := &s.sales.Meetings
		if i := s.sales.FindMeeting(id); i >= 0 {
			removed = meetings.Upcoming[i]
			meetings.Upcoming = append(meetings.Upcoming[:i:i], meetings.Upcoming[i+1:]...)
			meetings.Count--
		}
		s.mu.Unlock()

		s.publishEvent(websocket.Deleted(websocket.EntityTypeMeeting, removed))
		return nil
	})
}

// insertMeeting places m after every meeting scheduled at or before it
func insertMeeting(list []domain.Meeting, m domain.Meeting) []domain.Meeting {
	i := sort.Search(len(list), func(i int) bool {
		return list[i].ScheduledTime.After(m.ScheduledTime)
	})
	out := make([]domain.Meeting, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, m)
	return append(out, list[i:]...)
}

// EditDeal updates a deal, adjusts total revenue by the value delta, then
// reconciles the deal-linked income transactions
func (s *DashboardState) EditDeal(ctx context.Context, id int32, patch domain.DealPatch) (*domain.Deal, error) {
	var updated *domain.Deal
	err := s.run("edit_deal", func() error {
		s.mu.RLock()
		idx := s.sales.FindDeal(id)
		var current domain.Deal
		if idx >= 0 {
			current = s.sales.Deals.Recent[idx]
		}
		s.mu.RUnlock()
		if idx < 0 {
			return domain.NewNotFoundError("deal", id)
		}

		if err := trimPatchField("name", &patch.Name); err != nil {
			return err
		}
		if err := trimPatchField("company", &patch.Company); err != nil {
			return err
		}
		if patch.Value != nil {
			if err := validatePositive("value", *patch.Value); err != nil {
				return err
			}
		}
		if patch.Status != nil && !patch.Status.Valid() {
			return domain.NewValidationError("status", "must be won, lost or pending")
		}

		next := patch.Apply(current)
		row, err := s.repos.Deals.Update(ctx, &next)
		if err != nil || row == nil {
			return domain.NewRemoteWriteError("update deal", err)
		}

		s.mu.Lock()
		if i := s.sales.FindDeal(id); i >= 0 {
			old := s.sales.Deals.Recent[i].Value
			s.sales.Deals.Recent[i] = *row
			s.sales.TotalRevenue = s.sales.TotalRevenue.Sub(old).Add(row.Value)
		}
		s.mu.Unlock()

		updated = row
		s.publishEvent(websocket.Updated(websocket.EntityTypeDeal, row))

		_, err = s.reconcile(ctx)
		return err
	})
	return updated, err
}

// RemoveDeal deletes a deal, subtracts its value from total revenue, then
// reconciles. An id that is not present locally is a no-op.
func (s *DashboardState) RemoveDeal(ctx context.Context, id int32) error {
	return s.run("remove_deal", func() error {
		s.mu.RLock()
		idx := s.sales.FindDeal(id)
		s.mu.RUnlock()
		if idx < 0 {
			s.logger.Warn().Int32("deal_id", id).Msg("Deal not in dashboard, nothing to remove")
			return nil
		}

		if err := s.repos.Deals.Delete(ctx, s.workspaceID, id); err != nil {
			return domain.NewRemoteWriteError("delete deal", err)
		}

		s.mu.Lock()
		var removed domain.Deal
		deals := &s.sales.Deals
		if i := s.sales.FindDeal(id); i >= 0 {
			removed = deals.Recent[i]
			deals.Recent = append(deals.Recent[:i:i], deals.Recent[i+1:]...)
			deals.Count--
			s.sales.TotalRevenue = s.sales.TotalRevenue.Sub(removed.Value)
		}
		s.mu.Unlock()

		s.publishEvent(websocket.Deleted(websocket.EntityTypeDeal, removed))

		_, err := s.reconcile(ctx)
		return err
	})
}

// trimPatchField trims an optional text field and rejects it when blank
func trimPatchField(field string, value **string) error {
	if *value == nil {
		return nil
	}
	trimmed, err := validateName(field, **value)
	if err != nil {
		return err
	}
	*value = &trimmed
	return nil
}
