package store

import (
	"chatsync/pkg/logger"
)

// SeedDefaults creates the initial user directory and demo conversation when
// the store is empty: Alice(1), Bob(2), Charlie(3) and an "Alice & Bob Chat"
// conversation between Alice and Bob. A store that already has users is left
// untouched.
func SeedDefaults() error {
	users, err := ListUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	logger.Info("seeding_data")
	var ids []int64
	for _, name := range []string{"Alice", "Bob", "Charlie"} {
		u, err := CreateUser(name)
		if err != nil {
			return err
		}
		ids = append(ids, u.ID)
	}
	if _, err := CreateConversation("Alice & Bob Chat", []int64{ids[0], ids[1]}); err != nil {
		return err
	}
	return nil
}
