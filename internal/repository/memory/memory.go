package memory

import (
	"veilpay/internal/repository"
)

var (
	_ repository.RuleRepository         = (*RuleRepository)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
)
