package store

import "fmt"

type (
	UserNotFound struct {
		ID   int64
		Name string
	}

	PostNotFound struct {
		ID int64
	}

	NameTaken struct {
		Name string
	}

	InvalidPost struct {
		Field string
	}
)

func (u UserNotFound) Error() string {
	if u.Name != "" {
		return fmt.Sprintf("user %v not found", u.Name)
	}
	return fmt.Sprintf("user with id %v not found", u.ID)
}

func (p PostNotFound) Error() string {
	return fmt.Sprintf("post %v not found", p.ID)
}

func (n NameTaken) Error() string {
	return fmt.Sprintf("user name %v is already taken", n.Name)
}

func (i InvalidPost) Error() string {
	return fmt.Sprintf("post %v cannot be empty", i.Field)
}
