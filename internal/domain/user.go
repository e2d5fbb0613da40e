package domain

import (
	"strings"
	"time"
)

// User is an admin panel account. The password hash never leaves the server.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" bson:"_id" json:"id,string"`
	Name      string    `gorm:"size:100" bson:"name" json:"name"`
	Mobile    string    `gorm:"size:32" bson:"mobile" json:"mobile"`
	Email     string    `gorm:"size:255;uniqueIndex" bson:"email" json:"email"`
	Password  string    `gorm:"size:255" bson:"password" json:"-"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	LastLogin time.Time `bson:"lastLogin" json:"lastLogin"`
	CreatedAt time.Time `gorm:"index" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TableName Specify table name
func (User) TableName() string {
	return "sys_user"
}

func (u *User) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Mobile = strings.TrimSpace(u.Mobile)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}
