package domain

import "testing"

func TestUser_Validate(t *testing.T) {
	valid := User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*User)
	}{
		{"missing id", func(u *User) { u.ID = "" }},
		{"missing username", func(u *User) { u.Username = "" }},
		{"username shaped like email", func(u *User) { u.Username = "bob@example.com" }},
		{"missing email", func(u *User) { u.Email = "" }},
		{"missing hash", func(u *User) { u.PasswordHash = "" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			u := valid
			c.mutate(&u)
			if err := u.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestIsEmailKey(t *testing.T) {
	for key, want := range map[string]bool{
		"alice":             false,
		"alice@example.com": true,
		"@":                 true,
		"":                  false,
	} {
		if got := IsEmailKey(key); got != want {
			t.Errorf("IsEmailKey(%q) = %v, want %v", key, got, want)
		}
	}
}
