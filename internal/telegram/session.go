package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"

	"github.com/abelikov/keywatch/internal/domain"
)

// Session is one account's live connection, implemented with gotd/td. It
// decodes the stored credential, verifies the login, and feeds message and
// chat-membership events to the handler until its context is cancelled.
type Session struct {
	name       string
	apiID      int
	apiHash    string
	credential string
	handler    EventHandler
	logger     *zap.Logger

	client *telegram.Client
	api    *tg.Client
	gaps   *updates.Manager
	self   *tg.User

	mu      sync.Mutex
	peers   map[int64]tg.InputPeerClass
	handles map[int64]string

	ready     chan struct{}
	readyOnce sync.Once
}

func NewSession(name string, apiID int, apiHash, credential string, handler EventHandler, logger *zap.Logger) *Session {
	return &Session{
		name:       name,
		apiID:      apiID,
		apiHash:    apiHash,
		credential: credential,
		handler:    handler,
		logger:     logger,
		peers:      make(map[int64]tg.InputPeerClass),
		handles:    make(map[int64]string),
		ready:      make(chan struct{}),
	}
}

func (s *Session) Name() string { return s.name }

// Ready is closed once the session is connected and authenticated.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Self returns the authenticated user, nil before Ready.
func (s *Session) Self() *tg.User { return s.self }

// Run connects, verifies authentication and processes updates until ctx is
// cancelled. The connection is released on every return path because
// everything runs inside the client's own Run scope.
func (s *Session) Run(ctx context.Context) error {
	storage, err := storageFromCredential(ctx, s.credential)
	if err != nil {
		return err
	}

	dispatcher := tg.NewUpdateDispatcher()

	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
		s.dispatchMessage(update.Message, e)
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
		s.dispatchMessage(update.Message, e)
		return nil
	})

	// Self added to a legacy group by someone.
	dispatcher.OnChatParticipantAdd(func(ctx context.Context, e tg.Entities, update *tg.UpdateChatParticipantAdd) error {
		if s.self == nil || update.UserID != s.self.ID {
			return nil
		}
		s.handler.OnChatEvent(s, domain.ChatEvent{
			ChatID:  update.ChatID,
			IsGroup: true,
			Reason:  domain.ChatEventAdded,
		})
		return nil
	})

	// Channel membership changed (joined, created, or added).
	dispatcher.OnChannel(func(ctx context.Context, e tg.Entities, update *tg.UpdateChannel) error {
		ch, ok := e.Channels[update.ChannelID]
		if !ok || ch.Left {
			return nil
		}
		s.rememberChannel(ch)
		s.handler.OnChatEvent(s, domain.ChatEvent{
			ChatID:    ch.ID,
			IsGroup:   ch.Megagroup,
			IsChannel: true,
			Reason:    domain.ChatEventJoined,
		})
		return nil
	})

	s.gaps = updates.New(updates.Config{
		Handler: dispatcher,
		Logger:  s.logger.Named("gaps"),
	})

	s.client = telegram.NewClient(s.apiID, s.apiHash, telegram.Options{
		Logger:         s.logger,
		UpdateHandler:  s.gaps,
		SessionStorage: storage,
	})

	return s.client.Run(ctx, func(ctx context.Context) error {
		status, err := s.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return ErrNotAuthenticated
		}

		self, err := s.client.Self(ctx)
		if err != nil {
			return fmt.Errorf("get self: %w", err)
		}
		s.self = self
		s.api = s.client.API()

		s.readyOnce.Do(func() { close(s.ready) })

		return s.gaps.Run(ctx, s.api, self.ID, updates.AuthOptions{})
	})
}

// Dialogs enumerates active and archived dialogs, reduced to domain form.
// Peers and public handles are cached along the way for mark-read and
// permalink building.
func (s *Session) Dialogs(ctx context.Context) ([]domain.Dialog, error) {
	var out []domain.Dialog
	for _, folder := range []int{0, 1} {
		iter := dialogs.NewQueryBuilder(s.api).
			GetDialogs().
			BatchSize(100).
			FolderID(folder).
			Iter()
		for iter.Next(ctx) {
			if d, ok := s.dialogFromElem(iter.Value()); ok {
				out = append(out, d)
			}
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("iterate dialogs (folder %d): %w", folder, err)
		}
	}
	return out, nil
}

// MarkRead marks a chat's history read up to the given message.
func (s *Session) MarkRead(ctx context.Context, chatID int64, msgID int) error {
	peer := s.findPeer(chatID)
	if peer == nil {
		return fmt.Errorf("unknown peer: %d", chatID)
	}

	switch p := peer.(type) {
	case *tg.InputPeerChat:
		_, err := s.api.MessagesReadHistory(ctx, &tg.MessagesReadHistoryRequest{
			Peer:  p,
			MaxID: msgID,
		})
		return err
	case *tg.InputPeerChannel:
		_, err := s.api.ChannelsReadHistory(ctx, &tg.ChannelsReadHistoryRequest{
			Channel: &tg.InputChannel{ChannelID: p.ChannelID, AccessHash: p.AccessHash},
			MaxID:   msgID,
		})
		return err
	default:
		return fmt.Errorf("unsupported peer type for mark read: %T", peer)
	}
}

func (s *Session) dispatchMessage(msg tg.MessageClass, e tg.Entities) {
	switch m := msg.(type) {
	case *tg.Message:
		s.handler.OnNewMessage(s, s.convertMessage(m, e))
	case *tg.MessageService:
		if ev, ok := s.membershipFromService(m, e); ok {
			s.handler.OnChatEvent(s, ev)
		}
	}
}

// convertMessage resolves all metadata the pipeline needs from the update's
// entities, so downstream handlers never go back to the network.
func (s *Session) convertMessage(msg *tg.Message, e tg.Entities) domain.Message {
	out := domain.Message{
		ID:        msg.ID,
		Text:      msg.Message,
		Timestamp: time.Unix(int64(msg.Date), 0),
	}

	switch p := msg.PeerID.(type) {
	case *tg.PeerUser:
		out.ChatID = p.UserID
	case *tg.PeerChat:
		out.ChatID = p.ChatID
		out.IsGroup = true
		if ch, ok := e.Chats[p.ChatID]; ok {
			out.ChatTitle = ch.Title
			s.cachePeer(p.ChatID, &tg.InputPeerChat{ChatID: p.ChatID})
		}
	case *tg.PeerChannel:
		out.ChatID = p.ChannelID
		out.IsChannel = true
		if ch, ok := e.Channels[p.ChannelID]; ok {
			out.IsGroup = ch.Megagroup
			out.ChatTitle = ch.Title
			out.ChatHandle = ch.Username
			s.rememberChannel(ch)
		} else {
			out.ChatHandle = s.findHandle(p.ChannelID)
		}
	}

	switch p := msg.FromID.(type) {
	case *tg.PeerUser:
		out.SenderID = p.UserID
		if u, ok := e.Users[p.UserID]; ok {
			out.SenderName = formatUserName(u)
			out.SenderUsername = u.Username
			out.SenderIsBot = u.Bot
		}
	case *tg.PeerChannel:
		// Anonymous admin or a channel posting into a discussion group.
		out.SenderID = p.ChannelID
		if ch, ok := e.Channels[p.ChannelID]; ok {
			out.SenderName = ch.Title
		}
	case nil:
		// Channel posts carry no FromID; the sender is the channel itself.
		if out.IsChannel {
			out.SenderID = out.ChatID
			out.SenderName = out.ChatTitle
		}
	}

	return out
}

// membershipFromService extracts chat-membership events from service
// messages: chat created, or self added by someone.
func (s *Session) membershipFromService(msg *tg.MessageService, e tg.Entities) (domain.ChatEvent, bool) {
	var ev domain.ChatEvent

	switch p := msg.PeerID.(type) {
	case *tg.PeerChat:
		ev.ChatID = p.ChatID
		ev.IsGroup = true
	case *tg.PeerChannel:
		ev.ChatID = p.ChannelID
		ev.IsChannel = true
		if ch, ok := e.Channels[p.ChannelID]; ok {
			ev.IsGroup = ch.Megagroup
			s.rememberChannel(ch)
		}
	default:
		return ev, false
	}

	switch action := msg.Action.(type) {
	case *tg.MessageActionChatCreate, *tg.MessageActionChannelCreate:
		ev.Reason = domain.ChatEventCreated
		return ev, true
	case *tg.MessageActionChatAddUser:
		if s.self == nil {
			return ev, false
		}
		for _, uid := range action.Users {
			if uid == s.self.ID {
				ev.Reason = domain.ChatEventAdded
				return ev, true
			}
		}
		return ev, false
	case *tg.MessageActionChatJoinedByLink:
		if from, ok := msg.FromID.(*tg.PeerUser); ok && s.self != nil && from.UserID == s.self.ID {
			ev.Reason = domain.ChatEventJoined
			return ev, true
		}
		return ev, false
	default:
		return ev, false
	}
}

func (s *Session) dialogFromElem(elem dialogs.Elem) (domain.Dialog, bool) {
	switch p := elem.Dialog.GetPeer().(type) {
	case *tg.PeerChat:
		title := ""
		if ch, ok := elem.Entities.Chat(p.ChatID); ok {
			title = ch.Title
		}
		s.cachePeer(p.ChatID, &tg.InputPeerChat{ChatID: p.ChatID})
		return domain.Dialog{ID: p.ChatID, Title: title, IsGroup: true}, true
	case *tg.PeerChannel:
		d := domain.Dialog{ID: p.ChannelID, IsChannel: true}
		if ch, ok := elem.Entities.Channel(p.ChannelID); ok {
			d.Title = ch.Title
			d.IsGroup = ch.Megagroup
			s.rememberChannel(ch)
		} else if elem.Peer != nil {
			s.cachePeer(p.ChannelID, elem.Peer)
		}
		return d, true
	default:
		return domain.Dialog{}, false
	}
}

func (s *Session) rememberChannel(ch *tg.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[ch.ID] = &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}
	if ch.Username != "" {
		s.handles[ch.ID] = ch.Username
	}
}

func (s *Session) cachePeer(chatID int64, peer tg.InputPeerClass) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[chatID] = peer
}

func (s *Session) findPeer(chatID int64) tg.InputPeerClass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peers[chatID]
}

func (s *Session) findHandle(chatID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[chatID]
}

// formatUserName returns a display name for a user.
func formatUserName(u *tg.User) string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Unknown"
}
