package memory

import (
	"time"

	"github.com/dmitrijs2005/safelocker/internal/client/session"
	"github.com/dmitrijs2005/safelocker/internal/media"
)

// Demo account credentials.
const (
	DemoEmail    = "test@example.com"
	DemoPassword = "Password123!"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed adds the confirmed demo account and its five files.
func (b *Backend) Seed() *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()

	demo := session.User{Username: "testuser", UserID: "mock-user-id", Name: "Test User", Email: DemoEmail}
	b.accounts[DemoEmail] = &account{user: demo, password: DemoPassword, confirmed: true}

	items := []media.Item{
		{ID: "mock1", Filename: "vacation.jpg", Key: "photos/vacation.jpg", FileType: "image/jpeg", Folder: "photos", CreatedAt: day(2023, time.October, 26), Size: 2048000},
		{ID: "mock2", Filename: "family.png", Key: "photos/family.png", FileType: "image/png", Folder: "photos", CreatedAt: day(2023, time.September, 15), Size: 5120000},
		{ID: "mock3", Filename: "birthday.mp4", Key: "videos/birthday.mp4", FileType: "video/mp4", Folder: "videos", CreatedAt: day(2023, time.November, 1), Size: 150000000},
		{ID: "mock4", Filename: "resume.pdf", Key: "documents/resume.pdf", FileType: "application/pdf", Folder: "documents", CreatedAt: day(2023, time.August, 5), Size: 150000},
		{ID: "mock5", Filename: "project-plan.docx", Key: "documents/project-plan.docx", FileType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Folder: "documents", CreatedAt: day(2023, time.October, 20), Size: 750000},
	}
	for _, it := range items {
		it.Owner = demo.UserID
		b.items = append(b.items, it)
		b.objects[it.Key] = it.Size
	}
	return b
}
