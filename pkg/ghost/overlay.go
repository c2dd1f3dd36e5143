package ghost

import (
	"go.uber.org/zap"
)

// overlay keeps at most one span on the surface.
type overlay struct {
	surface Surface
	logger  *zap.Logger

	id    OverlayID
	shown bool
	text  string
}

// show replaces whatever is displayed with text at anchor. Empty text only
// clears. A failed insert leaves nothing on the surface and is not reported
// beyond a debug log.
func (o *overlay) show(anchor Anchor, text string) {
	o.clear()
	if text == "" {
		return
	}

	id, err := o.surface.InsertOverlay(anchor, text)
	if err != nil {
		o.logger.Debug("ghost overlay insert failed",
			zap.String("blockId", anchor.BlockID),
			zap.Int("offset", anchor.Offset),
			zap.Error(err),
		)
		return
	}
	if err := o.surface.CollapseSelectionBefore(id); err != nil {
		o.logger.Debug("ghost overlay selection failed", zap.Error(err))
		o.surface.RemoveOverlay(id)
		return
	}

	o.id = id
	o.shown = true
	o.text = text
}

func (o *overlay) clear() {
	if o.shown {
		o.surface.RemoveOverlay(o.id)
	}
	o.shown = false
	o.text = ""
}
