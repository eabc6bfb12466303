package redis

import (
	"fmt"

	"github.com/mcoot/lostfound/internal/model"
)

// Key prefix for all lost & found data
const keyPrefix = "lostfound"

// accountKey returns the Redis key for an Account
func accountKey(id model.AccountID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// emailIndexKey returns the Redis key for the email -> account_id index
func emailIndexKey(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", keyPrefix, email)
}

// accountsIndexKey returns the Redis key for the SET of all account IDs
func accountsIndexKey() string {
	return fmt.Sprintf("%s:idx:accounts", keyPrefix)
}

// itemKey returns the Redis key for an Item
func itemKey(id model.ItemID) string {
	return fmt.Sprintf("%s:item:%s", keyPrefix, id)
}

// itemsIndexKey returns the Redis key for the ZSET of items with a status,
// scored by report time. An empty status names the index of every item.
func itemsIndexKey(status model.ItemStatus) string {
	if status == "" {
		return fmt.Sprintf("%s:idx:items:all", keyPrefix)
	}
	return fmt.Sprintf("%s:idx:items:%s", keyPrefix, status)
}
