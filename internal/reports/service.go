package reports

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eventhub/eventhub-backend/internal/db"
	"github.com/eventhub/eventhub-backend/internal/models"
)

// Service aggregates cross-domain figures for the admin reporting endpoints.
type Service struct {
	db *gorm.DB
}

// NewService wires the reporting service.
func NewService(conn *gorm.DB) *Service {
	return &Service{db: conn}
}

// Dashboard is the top-level operational overview.
type Dashboard struct {
	TotalUsers          int64                `json:"total_users"`
	ActiveMemberships   int64                `json:"active_memberships"`
	UpcomingEvents      int64                `json:"upcoming_events"`
	PendingTransactions int64                `json:"pending_transactions"`
	RevenueThisMonth    float64              `json:"revenue_this_month"`
	RevenueTotal        float64              `json:"revenue_total"`
	RecentTransactions  []models.Transaction `json:"recent_transactions"`
}

// ComputeDashboard gathers the headline numbers shown on the admin landing page.
func (s *Service) ComputeDashboard(ctx context.Context) (*Dashboard, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	d := &Dashboard{}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ?", true).Count(&d.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("status = ? AND end_date > ?", models.MembershipStatusActive, now).
		Count(&d.ActiveMemberships).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ? AND start_date > ?", models.EventStatusPublished, now).
		Count(&d.UpcomingEvents).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusPending).
		Count(&d.PendingTransactions).Error; err != nil {
		return nil, err
	}

	// Refund rows carry positive amounts; subtract them from revenue.
	revenueExpr := "COALESCE(SUM(CASE WHEN type = ? THEN -net_amount ELSE net_amount END), 0)"
	row := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ?", models.TransactionStatusCompleted).
		Select(revenueExpr, models.TransactionTypeRefund).Row()
	if err := row.Scan(&d.RevenueTotal); err != nil {
		return nil, err
	}
	row = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("status = ? AND created_at >= ?", models.TransactionStatusCompleted, monthStart).
		Select(revenueExpr, models.TransactionTypeRefund).Row()
	if err := row.Scan(&d.RevenueThisMonth); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("User").
		Order("created_at DESC").Limit(5).
		Find(&d.RecentTransactions).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// BucketCount is a generic label/count aggregation row.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int64  `json:"count"`
}

// RevenueBucket is a label/count/total aggregation row.
type RevenueBucket struct {
	Bucket string  `json:"bucket"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

// MembershipStats summarizes the membership base.
type MembershipStats struct {
	Total         int64           `json:"total"`
	Active        int64           `json:"active"`
	ExpiringSoon  int64           `json:"expiring_soon"`
	Recent        int64           `json:"recent"`
	ByStatus      []BucketCount   `json:"by_status"`
	ByType        []BucketCount   `json:"by_type"`
	Revenue       float64         `json:"revenue"`
	RevenueByType []RevenueBucket `json:"revenue_by_type"`
}

// ComputeMembershipStats aggregates membership counts and revenue.
// Expiring soon means an active membership ending within 30 days.
func (s *Service) ComputeMembershipStats(ctx context.Context) (*MembershipStats, error) {
	now := time.Now().UTC()
	stats := &MembershipStats{}

	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("status = ? AND end_date > ?", models.MembershipStatusActive, now).
		Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("status = ? AND end_date > ? AND end_date <= ?",
			models.MembershipStatusActive, now, now.AddDate(0, 0, 30)).
		Count(&stats.ExpiringSoon).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("created_at >= ?", now.AddDate(0, 0, -30)).
		Count(&stats.Recent).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("status AS bucket, COUNT(*) AS count").
		Group("status").Order("status").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Select("membership_type AS bucket, COUNT(*) AS count").
		Group("membership_type").Order("membership_type").
		Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}

	row := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&stats.Revenue); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("payment_status = ?", models.PaymentStatusCompleted).
		Select("membership_type AS bucket, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Group("membership_type").Order("membership_type").
		Scan(&stats.RevenueByType).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// EventReport summarizes the event calendar and its uptake.
type EventReport struct {
	Total          int64         `json:"total"`
	Published      int64         `json:"published"`
	ByCategory     []BucketCount `json:"by_category"`
	ByMonth        []BucketCount `json:"by_month"`
	AttendanceRate float64       `json:"attendance_rate"`
	FeeRevenue     float64       `json:"fee_revenue"`
}

// ComputeEventReport aggregates event counts, monthly distribution and fill
// rate. The attendance rate averages each event's seat occupancy percentage
// over events with a nonzero capacity.
func (s *Service) ComputeEventReport(ctx context.Context) (*EventReport, error) {
	report := &EventReport{}

	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Count(&report.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("status = ?", models.EventStatusPublished).
		Count(&report.Published).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Select("category AS bucket, COUNT(*) AS count").
		Group("category").Order("count DESC").
		Scan(&report.ByCategory).Error; err != nil {
		return nil, err
	}

	monthExpr := db.MonthBucketExpr(s.db, "start_date")
	if err := s.db.WithContext(ctx).Model(&models.Event{}).
		Select(monthExpr + " AS bucket, COUNT(*) AS count").
		Group(monthExpr).Order("bucket").
		Scan(&report.ByMonth).Error; err != nil {
		return nil, err
	}

	row := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("max_attendees > 0").
		Select("COALESCE(AVG(current_attendees * 100.0 / max_attendees), 0)").Row()
	if err := row.Scan(&report.AttendanceRate); err != nil {
		return nil, err
	}

	row = s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TransactionTypeEventRegistration, models.TransactionStatusCompleted).
		Select("COALESCE(SUM(net_amount), 0)").Row()
	if err := row.Scan(&report.FeeRevenue); err != nil {
		return nil, err
	}
	return report, nil
}

// Participant is a user ranked by how many events they registered for.
type Participant struct {
	UserID    uint64 `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Count     int64  `json:"count"`
}

// UserReport summarizes the user base.
type UserReport struct {
	Total           int64         `json:"total"`
	Active          int64         `json:"active"`
	Admins          int64         `json:"admins"`
	WithCurrent     int64         `json:"with_active_membership"`
	ByRole          []BucketCount `json:"by_role"`
	ByMonth         []BucketCount `json:"signups_by_month"`
	TopParticipants []Participant `json:"top_participants"`
}

// ComputeUserReport aggregates user counts and signup distribution.
func (s *Service) ComputeUserReport(ctx context.Context) (*UserReport, error) {
	now := time.Now().UTC()
	report := &UserReport{}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Count(&report.Total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("active = ?", true).Count(&report.Active).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).Count(&report.Admins).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("status = ? AND end_date > ?", models.MembershipStatusActive, now).
		Distinct("user_id").Count(&report.WithCurrent).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("role AS bucket, COUNT(*) AS count").
		Group("role").Order("role").
		Scan(&report.ByRole).Error; err != nil {
		return nil, err
	}

	monthExpr := db.MonthBucketExpr(s.db, "created_at")
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select(monthExpr + " AS bucket, COUNT(*) AS count").
		Group(monthExpr).Order("bucket").
		Scan(&report.ByMonth).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&models.EventRegistration{}).
		Select("event_registrations.user_id AS user_id, users.first_name AS first_name, users.last_name AS last_name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = event_registrations.user_id").
		Group("event_registrations.user_id, users.first_name, users.last_name").
		Order("count DESC").Limit(5).
		Scan(&report.TopParticipants).Error; err != nil {
		return nil, err
	}
	return report, nil
}
