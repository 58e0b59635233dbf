package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hammamikhairi/hotpot/internal/admin"
	"github.com/hammamikhairi/hotpot/internal/catalog"
	"github.com/hammamikhairi/hotpot/internal/config"
	"github.com/hammamikhairi/hotpot/internal/conversation"
	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
	"github.com/hammamikhairi/hotpot/internal/logger"
	"github.com/hammamikhairi/hotpot/internal/sound"
	"github.com/hammamikhairi/hotpot/internal/speech"
	"github.com/hammamikhairi/hotpot/internal/storage"
	"github.com/hammamikhairi/hotpot/internal/timer"
)

// kitchen is everything a cooking session needs, wired together.
type kitchen struct {
	repo       domain.Repository
	catalog    *catalog.Catalog
	engine     *engine.Engine
	gate       *admin.Gate
	supervisor *timer.Supervisor
	notifier   domain.Notifiers

	chime *sound.Chime  // nil when sound is off
	mouth *speech.Mouth // nil when TTS is unavailable
	log   *logger.Logger
}

// openStore opens the repository and the catalog on top of it.
func openStore(ctx context.Context, c config.Config, log *logger.Logger) (domain.Repository, *catalog.Catalog, error) {
	repo, err := storage.Open(c.Store, c.DataDir, log.Named("storage"))
	if err != nil {
		return nil, nil, err
	}
	cat := catalog.New(log.Named("catalog"), catalog.WithRepository(repo))
	if err := cat.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, nil, fmt.Errorf("loading catalog: %w", err)
	}
	return repo, cat, nil
}

// openKitchen wires storage, catalog, notifiers, engine and timers, and
// starts the background loops. printFn receives one formatted line per
// event.
func openKitchen(ctx context.Context, c config.Config, log *logger.Logger, printFn conversation.PrintFunc) (*kitchen, error) {
	repo, cat, err := openStore(ctx, c, log)
	if err != nil {
		return nil, err
	}

	k := &kitchen{repo: repo, catalog: cat, log: log}

	k.gate = admin.New(repo, log.Named("admin"))
	if err := k.gate.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	k.notifier = domain.Notifiers{conversation.NewCLINotifier(cat, log, printFn)}
	k.startAudio(ctx, c)

	k.engine = engine.New(cat, log.Named("engine"),
		engine.WithRepository(repo),
		engine.WithNotifier(k.notifier),
	)
	if err := k.engine.Load(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	cat.OnDelete(k.engine.OnIngredientDeleted)

	k.supervisor = timer.New(k.engine, k.notifier, log.Named("timer"),
		timer.WithTickInterval(c.TickInterval),
		timer.WithAlmostDoneThreshold(c.AlmostDone),
		timer.WithWatcher(
			timer.WithReminderInterval(c.ReminderInterval),
			timer.WithMaxReminders(c.MaxReminders),
		),
	)
	k.supervisor.Start(ctx)
	return k, nil
}

// startAudio adds the tone and speech notifiers when enabled. A missing
// audio device only disables sound.
func (k *kitchen) startAudio(ctx context.Context, c config.Config) {
	if !c.Sound && !c.Speech {
		return
	}
	player, err := sound.NewPlayer(k.log.Named("audio"))
	if err != nil {
		k.log.Error("audio player init failed, sound disabled: %v", err)
		return
	}

	if c.Sound {
		k.chime = sound.NewChime(player, k.log.Named("chime"))
		k.chime.Start(ctx)
		k.notifier = append(k.notifier, k.chime)
	}

	if !c.Speech {
		return
	}
	key := os.Getenv(speech.EnvAzureSpeechKey)
	region := os.Getenv(speech.EnvAzureSpeechRegion)
	if key == "" || region == "" {
		k.log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
		k.notifier = append(k.notifier, speech.NewSpeakingNotifier(k.catalog, speech.NewNoOp(k.log), k.log))
		return
	}

	tts := speech.NewAzureClient(key, region, k.log.Named("tts"))
	k.mouth = speech.NewMouth(tts, player, k.log.Named("mouth"), speech.WithCacheDir(c.SpeechCacheDir))
	k.mouth.Start(ctx)
	k.mouth.Prefetch(ctx, speech.LineWelcome(), speech.LineBye())
	k.notifier = append(k.notifier, speech.NewSpeakingNotifier(k.catalog, k.mouth, k.log))
	k.log.Info("TTS enabled (voice=%s, region=%s)", tts.Voice(), region)
}

// say speaks text when TTS is on.
func (k *kitchen) say(text string, priority speech.Priority) {
	if k.mouth != nil {
		k.mouth.Say(text, priority)
	}
}

// play sounds cues when sound is on.
func (k *kitchen) play(cues ...sound.Cue) {
	if k.chime != nil {
		k.chime.Play(cues...)
	}
}

// imported tells every notifier about a finished catalog import.
func (k *kitchen) imported(ctx context.Context, n int) {
	ev := domain.Event{Type: domain.EventCatalogImported, Count: n, At: time.Now()}
	if err := k.notifier.Notify(ctx, ev); err != nil {
		k.log.Warn("notify %s: %v", ev.Type, err)
	}
}

// Close stops the timers and releases the store.
func (k *kitchen) Close() error {
	k.supervisor.Stop()
	return k.repo.Close()
}
