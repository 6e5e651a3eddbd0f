package domain

type User struct {
	ID           string  `db:"id"`
	DisplayName  string  `db:"display_name"`
	SecretKey    string  `db:"secret_key"`
	AvatarBase64 *string `db:"avatar_base64"`
}

// Participant is the read-mostly profile snapshot attached to live
// connections and message authorship. It is what goes out on the wire
// for presence and typing views.
type Participant struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"displayName"`
	AvatarBase64 *string `json:"avatarBase64"`
}

func (u *User) Participant() Participant {
	return Participant{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		AvatarBase64: u.AvatarBase64,
	}
}
