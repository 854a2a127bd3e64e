package main

import (
	"fmt"

	"github.com/alfredjeanlab/formrec/internal/cache"
	"github.com/alfredjeanlab/formrec/internal/client"
	"github.com/alfredjeanlab/formrec/internal/events"
	"github.com/alfredjeanlab/formrec/internal/model"
)

// session is one cache plus the resources behind it.
type session struct {
	cache *cache.Cache
	store client.RecordStore // nil when local
	pub   events.Publisher
	log   *events.MemoryPublisher
}

func (s *session) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
	_ = s.pub.Close()
}

// openSession builds the cache for table using the loaded config. In local
// mode no remote store is contacted; otherwise the API key and base id must
// be configured. Events go to NATS when FORMREC_NATS_URL is set and are
// always kept in an in-process log.
func openSession(table string, schema model.Schema, seed []*model.Record) (*session, error) {
	s := &session{log: &events.MemoryPublisher{}}

	pubs := events.Multi{s.log}
	if cfg.NATSURL != "" {
		np, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to NATS: %w", err)
		}
		pubs = append(pubs, np)
	}
	s.pub = pubs

	opts := cache.Options{
		Schema:    schema,
		Table:     table,
		Publisher: s.pub,
		Logger:    logger,
		Seed:      seed,
	}
	if !localMode {
		if err := cfg.Validate(); err != nil {
			_ = s.pub.Close()
			return nil, fmt.Errorf("%w (or use --local)", err)
		}
		s.store = client.NewHTTPClient(client.CollectionURL(cfg.Host, cfg.BaseID, table), cfg.APIKey, cfg.Timeout)
		opts.Store = s.store
	}
	s.cache = cache.New(opts)
	return s, nil
}
