package adapter

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
	memberport "github.com/chaan32/StudyPing/internal/repository/port"
)

// MemoryChatRepository keeps rooms, messages and read marks in process memory.
// It doubles as a member directory so the chat core can run without Postgres
// in tests and local experiments.
type MemoryChatRepository struct {
	mu sync.Mutex

	members      map[int64]chat.Member
	rooms        map[int64]chat.Room
	participants map[int64]map[int64]struct{} // roomID -> memberIDs
	messages     map[int64][]chat.Message     // roomID -> messages in insertion order
	marks        []chat.ReadMark

	nextRoomID    int64
	nextMessageID int64

	// FailSave makes SaveMessage fail with the given error without touching state.
	FailSave error
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		members:      make(map[int64]chat.Member),
		rooms:        make(map[int64]chat.Room),
		participants: make(map[int64]map[int64]struct{}),
		messages:     make(map[int64][]chat.Message),
	}
}

var (
	_ repository.ChatRepository   = (*MemoryChatRepository)(nil)
	_ memberport.MemberRepository = (*MemoryChatRepository)(nil)
)

// PutMember adds or replaces a member of the directory.
func (r *MemoryChatRepository) PutMember(m chat.Member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = m
}

func (r *MemoryChatRepository) FindByID(_ context.Context, id int64) (*chat.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok {
		return nil, chat.ErrMemberNotFound
	}
	return &m, nil
}

func (r *MemoryChatRepository) FindByEmail(_ context.Context, email string) (*chat.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if strings.EqualFold(m.Email, email) {
			m := m
			return &m, nil
		}
	}
	return nil, chat.ErrMemberNotFound
}

func (r *MemoryChatRepository) FindRoom(_ context.Context, roomID int64) (*chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	return &room, nil
}

func (r *MemoryChatRepository) FindRoomByStudy(_ context.Context, studyID int64) (*chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if room.StudyID != nil && *room.StudyID == studyID {
			room := room
			return &room, nil
		}
	}
	return nil, chat.ErrRoomNotFound
}

func (r *MemoryChatRepository) ListRoomsByMember(_ context.Context, memberID int64) ([]chat.RoomSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rooms []chat.RoomSummary
	for id, members := range r.participants {
		if _, ok := members[memberID]; !ok {
			continue
		}
		room := r.rooms[id]
		rooms = append(rooms, chat.RoomSummary{
			RoomID:      id,
			Name:        room.Name,
			Type:        room.Type,
			UnreadCount: r.countUnreadLocked(id, memberID),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	return rooms, nil
}

func (r *MemoryChatRepository) CreateGroupRoom(_ context.Context, room chat.Room, leaderID int64) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.StudyID == nil {
		return 0, false, chat.ErrInvalidStudy
	}
	for id, existing := range r.rooms {
		if existing.StudyID != nil && *existing.StudyID == *room.StudyID {
			return id, false, nil
		}
	}
	id := r.insertRoomLocked(room)
	r.addParticipantLocked(id, leaderID)
	return id, true, nil
}

func (r *MemoryChatRepository) FindOrCreateDirectRoom(_ context.Context, room chat.Room, memberA, memberB int64) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room.DirectKey == nil {
		return 0, false, chat.ErrInvalidDirectPair
	}
	for id, existing := range r.rooms {
		if existing.DirectKey != nil && *existing.DirectKey == *room.DirectKey {
			return id, false, nil
		}
	}
	id := r.insertRoomLocked(room)
	r.addParticipantLocked(id, memberA)
	r.addParticipantLocked(id, memberB)
	return id, true, nil
}

func (r *MemoryChatRepository) ListParticipantIDs(_ context.Context, roomID int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantIDsLocked(roomID), nil
}

func (r *MemoryChatRepository) IsParticipant(_ context.Context, roomID int64, memberID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.participants[roomID][memberID]
	return ok, nil
}

func (r *MemoryChatRepository) AddParticipant(_ context.Context, roomID int64, memberID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		return false, chat.ErrRoomNotFound
	}
	return r.addParticipantLocked(roomID, memberID), nil
}

func (r *MemoryChatRepository) SaveMessage(_ context.Context, m chat.Message) (chat.Message, []chat.ReadMark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSave != nil {
		return chat.Message{}, nil, r.FailSave
	}
	if _, ok := r.rooms[m.RoomID]; !ok {
		return chat.Message{}, nil, chat.ErrRoomNotFound
	}
	r.nextMessageID++
	m.ID = r.nextMessageID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	marks := chat.InitialReadMarks(m, r.participantIDsLocked(m.RoomID))
	r.messages[m.RoomID] = append(r.messages[m.RoomID], m)
	r.marks = append(r.marks, marks...)
	return m, marks, nil
}

func (r *MemoryChatRepository) GetMessagesByRoom(_ context.Context, roomID int64, limit int, offset int) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	all := r.messages[roomID]
	end := len(all) - offset
	if end <= 0 {
		return nil, nil
	}
	start := max(end-limit, 0)
	out := make([]chat.Message, end-start)
	copy(out, all[start:end])
	return out, nil
}

func (r *MemoryChatRepository) MarkRead(_ context.Context, roomID int64, memberID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.marks {
		if r.marks[i].RoomID == roomID && r.marks[i].MemberID == memberID && !r.marks[i].Read {
			r.marks[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *MemoryChatRepository) CountUnread(_ context.Context, roomID int64, memberID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.countUnreadLocked(roomID, memberID), nil
}

// ReadMarks returns a copy of the marks stored for one message.
func (r *MemoryChatRepository) ReadMarks(messageID int64) []chat.ReadMark {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []chat.ReadMark
	for _, m := range r.marks {
		if m.MessageID == messageID {
			out = append(out, m)
		}
	}
	return out
}

func (r *MemoryChatRepository) insertRoomLocked(room chat.Room) int64 {
	r.nextRoomID++
	room.ID = r.nextRoomID
	room.CreatedAt = time.Now().UTC()
	r.rooms[room.ID] = room
	r.participants[room.ID] = make(map[int64]struct{})
	return room.ID
}

func (r *MemoryChatRepository) addParticipantLocked(roomID, memberID int64) bool {
	members := r.participants[roomID]
	if members == nil {
		members = make(map[int64]struct{})
		r.participants[roomID] = members
	}
	if _, ok := members[memberID]; ok {
		return false
	}
	members[memberID] = struct{}{}
	return true
}

func (r *MemoryChatRepository) participantIDsLocked(roomID int64) []int64 {
	ids := make([]int64, 0, len(r.participants[roomID]))
	for id := range r.participants[roomID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *MemoryChatRepository) countUnreadLocked(roomID, memberID int64) int64 {
	var n int64
	for _, m := range r.marks {
		if m.RoomID == roomID && m.MemberID == memberID && !m.Read {
			n++
		}
	}
	return n
}
