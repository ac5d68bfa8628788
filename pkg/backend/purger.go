package backend

import (
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

func (b *backend) StartPurgerDaemon(stopCh <-chan struct{}) {
	logrus.Infof("starting purge daemon. Purge interval: %v, anonymous account max age: %v",
		b.purgeIntervalSeconds, b.anonymousMaxAgeSeconds)
	wait.JitterUntil(b.purge, time.Duration(b.purgeIntervalSeconds)*time.Second, .002, true, stopCh)
}

// purge removes children whose admin is gone and anonymous accounts that
// never joined an admin.
func (b *backend) purge() {
	logrus.Infof("Beginning purge")

	childrenDeleted, err := b.db.PurgeOrphanedChildren()
	if err != nil {
		logrus.Errorf("problem purging orphaned children: %v", err)
	}
	logrus.Infof("Orphaned children purged from DB: %v", childrenDeleted)

	if b.anonymousMaxAgeSeconds <= 0 {
		return
	}

	accountsDeleted, err := b.db.PurgeStaleAnonymousAccounts(b.anonymousMaxAgeSeconds)
	if err != nil {
		logrus.Errorf("problem purging anonymous accounts: %v", err)
	}
	logrus.Infof("Anonymous accounts purged from DB: %v", accountsDeleted)
}
