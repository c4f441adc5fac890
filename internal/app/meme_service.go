// internal/app/meme_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrCaptionFailed marks a failure of the external image captioning service.
var ErrCaptionFailed = errors.New("meme caption generation failed")

// captionTemplateID is the "happy kid" template used once the pool runs out.
const captionTemplateID = 61544

// DefaultMemePool holds pre-generated images indexed by streak length, starting at 0.
var DefaultMemePool = []string{
	"https://i.imgflip.com/24alma.jpg", // sad trooper
	"https://i.imgflip.com/29fva8.jpg",
	"https://i.imgflip.com/29fvfj.jpg",
	"https://i.imgflip.com/29fvi9.jpg",
	"https://i.imgflip.com/29fvko.jpg",
	"https://i.imgflip.com/29fvn1.jpg",
	"https://i.imgflip.com/29fvq2.jpg",
	"https://i.imgflip.com/29fvt3.jpg",
	"https://i.imgflip.com/29fvxn.jpg",
	"https://i.imgflip.com/29fw0j.jpg",
	"https://i.imgflip.com/29fw3m.jpg",
	"https://i.imgflip.com/29fw69.jpg",
	"https://i.imgflip.com/29fw9g.jpg",
	"https://i.imgflip.com/29fwda.jpg",
	"https://i.imgflip.com/29fwge.jpg",
	"https://i.imgflip.com/29fwqc.jpg",
	"https://i.imgflip.com/29fwuj.jpg",
	"https://i.imgflip.com/29fwx2.jpg",
	"https://i.imgflip.com/29fwzf.jpg",
	"https://i.imgflip.com/29fx2b.jpg",
	"https://i.imgflip.com/29fx5d.jpg",
	"https://i.imgflip.com/29fx83.jpg",
	"https://i.imgflip.com/2ezh3l.jpg",
	"https://i.imgflip.com/2ezhux.jpg",
	"https://i.imgflip.com/2ezhpw.jpg",
	"https://i.imgflip.com/2ezi2g.jpg",
	"https://i.imgflip.com/2ezi9b.jpg",
	"https://i.imgflip.com/2ezifv.jpg",
	"https://i.imgflip.com/2ezipx.jpg",
	"https://i.imgflip.com/2eziyb.jpg",
	"https://i.imgflip.com/2ezj8q.jpg",
}

// Captioner renders a captioned image from a template and returns its URL.
type Captioner interface {
	Caption(ctx context.Context, templateID int, top, bottom string) (string, error)
}

// CaptionCache remembers generated caption URLs per streak length.
type CaptionCache interface {
	GetCaption(ctx context.Context, streak int) (string, bool, error)
	SetCaption(ctx context.Context, streak int, url string) error
}

// MemeResult is the payload of /meme.
type MemeResult struct {
	SuccessStreak int    `json:"successStreak"`
	ImageURL      string `json:"imageUrl"`
}

type streakCounter interface {
	CurrentStreak(ctx context.Context) (int, error)
}

// MemeService picks an image celebrating the current success streak.
type MemeService struct {
	streaks   streakCounter
	pool      []string
	captioner Captioner
	cache     CaptionCache // Optional
	logger    *logrus.Entry
}

func NewMemeService(streaks streakCounter, pool []string, captioner Captioner, cache CaptionCache, logger *logrus.Entry) *MemeService {
	if len(pool) == 0 {
		pool = DefaultMemePool
	}
	return &MemeService{
		streaks:   streaks,
		pool:      pool,
		captioner: captioner,
		cache:     cache,
		logger:    logger,
	}
}

func (s *MemeService) Meme(ctx context.Context) (MemeResult, error) {
	streak, err := s.streaks.CurrentStreak(ctx)
	if err != nil {
		return MemeResult{}, err
	}
	url, err := s.ImageFor(ctx, streak)
	if err != nil {
		return MemeResult{}, err
	}
	return MemeResult{SuccessStreak: streak, ImageURL: url}, nil
}

// ImageFor returns the pool image for short streaks and a generated caption beyond the pool.
func (s *MemeService) ImageFor(ctx context.Context, streak int) (string, error) {
	if streak < len(s.pool) {
		return s.pool[streak], nil
	}

	log := s.logger.WithField("streak", streak)
	if s.cache != nil {
		url, ok, err := s.cache.GetCaption(ctx, streak)
		if err != nil {
			log.WithError(err).Warn("Caption cache lookup failed")
		} else if ok {
			return url, nil
		}
	}

	if s.captioner == nil {
		return "", fmt.Errorf("%w: no captioning service configured", ErrCaptionFailed)
	}
	url, err := s.captioner.Caption(ctx, captionTemplateID, "yes!!!!!", fmt.Sprintf("%d in a row!", streak))
	if err != nil {
		log.WithError(err).Error("Error in meme image generation")
		return "", fmt.Errorf("%w: %w", ErrCaptionFailed, err)
	}
	url = forceHTTPS(url)

	if s.cache != nil {
		if err := s.cache.SetCaption(ctx, streak, url); err != nil {
			log.WithError(err).Warn("Failed to cache caption")
		}
	}
	return url, nil
}

func forceHTTPS(url string) string {
	if strings.HasPrefix(url, "http:") {
		return "https:" + strings.TrimPrefix(url, "http:")
	}
	return url
}
