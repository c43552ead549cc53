package model

import "time"

type NotificationPreferences struct {
	StudyReminders bool `json:"studyReminders"`
	AIInsights     bool `json:"aiInsights"`
	WeeklyReports  bool `json:"weeklyReports"`
	NewFeatures    bool `json:"newFeatures"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		StudyReminders: true,
		AIInsights:     true,
		WeeklyReports:  false,
		NewFeatures:    true,
	}
}

type Profile struct {
	ID                      string                  `gorm:"primaryKey;size:36" json:"id"`
	Name                    string                  `gorm:"size:128" json:"name"`
	Email                   string                  `gorm:"size:255;uniqueIndex;not null" json:"email"`
	AvatarURL               string                  `gorm:"size:1024" json:"avatarUrl"`
	University              string                  `gorm:"size:255" json:"university"`
	Major                   string                  `gorm:"size:255" json:"major"`
	NotificationPreferences NotificationPreferences `gorm:"embedded;embeddedPrefix:notify_" json:"notificationPreferences"`
	CreatedAt               time.Time               `json:"createdAt"`
	UpdatedAt               time.Time               `json:"updatedAt"`
}
