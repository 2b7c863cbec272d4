package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/chaan32/StudyPing/internal/pkg/chat/application/domain"
	repository "github.com/chaan32/StudyPing/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

var errNilPool = errors.New("PgChatRepository: nil pool")

func (r *PgChatRepository) ok() bool { return r != nil && r.pool != nil }

const roomColumns = "id, name, type, study_id, direct_key, created_at"

func scanRoom(row pgx.Row) (*chat.Room, error) {
	var room chat.Room
	if err := row.Scan(&room.ID, &room.Name, &room.Type, &room.StudyID, &room.DirectKey, &room.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrRoomNotFound
		}
		return nil, err
	}
	if !room.Type.Valid() {
		return nil, fmt.Errorf("chat_room %d: unknown type %q", room.ID, room.Type)
	}
	return &room, nil
}

func (r *PgChatRepository) FindRoom(ctx context.Context, roomID int64) (*chat.Room, error) {
	if !r.ok() {
		return nil, errNilPool
	}
	return scanRoom(r.pool.QueryRow(ctx, "SELECT "+roomColumns+" FROM chat_room WHERE id = $1", roomID))
}

func (r *PgChatRepository) FindRoomByStudy(ctx context.Context, studyID int64) (*chat.Room, error) {
	if !r.ok() {
		return nil, errNilPool
	}
	return scanRoom(r.pool.QueryRow(ctx, "SELECT "+roomColumns+" FROM chat_room WHERE study_id = $1", studyID))
}

func (r *PgChatRepository) ListRoomsByMember(ctx context.Context, memberID int64) ([]chat.RoomSummary, error) {
	if !r.ok() {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.type,
		       (SELECT count(*) FROM read_status rs
		         WHERE rs.chat_room_id = r.id AND rs.member_id = p.member_id AND NOT rs.is_read)
		FROM chat_participant p
		JOIN chat_room r ON r.id = p.chat_room_id
		WHERE p.member_id = $1
		ORDER BY r.id
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []chat.RoomSummary
	for rows.Next() {
		var s chat.RoomSummary
		if err := rows.Scan(&s.RoomID, &s.Name, &s.Type, &s.UnreadCount); err != nil {
			return nil, err
		}
		rooms = append(rooms, s)
	}
	return rooms, rows.Err()
}

func (r *PgChatRepository) CreateGroupRoom(ctx context.Context, room chat.Room, leaderID int64) (int64, bool, error) {
	if !r.ok() {
		return 0, false, errNilPool
	}
	var (
		id      int64
		created bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat_room (name, type, study_id, created_at, updated_at)
			VALUES ($1, 'GROUP', $2, now(), now())
			ON CONFLICT (study_id) DO NOTHING
			RETURNING id
		`, room.Name, room.StudyID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return tx.QueryRow(ctx, "SELECT id FROM chat_room WHERE study_id = $1", room.StudyID).Scan(&id)
		}
		if err != nil {
			return err
		}
		created = true
		_, err = tx.Exec(ctx, insertParticipantSQL, id, leaderID)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// The unique direct_key serializes concurrent creators of the same pair: the
// loser's INSERT waits for the winner to commit, then falls through to SELECT.
func (r *PgChatRepository) FindOrCreateDirectRoom(ctx context.Context, room chat.Room, memberA, memberB int64) (int64, bool, error) {
	if !r.ok() {
		return 0, false, errNilPool
	}
	if room.DirectKey == nil {
		return 0, false, chat.ErrInvalidDirectPair
	}
	var (
		id      int64
		created bool
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO chat_room (name, type, direct_key, created_at, updated_at)
			VALUES ($1, 'DIRECT', $2, now(), now())
			ON CONFLICT (direct_key) DO NOTHING
			RETURNING id
		`, room.Name, *room.DirectKey).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return tx.QueryRow(ctx, "SELECT id FROM chat_room WHERE direct_key = $1", *room.DirectKey).Scan(&id)
		}
		if err != nil {
			return err
		}
		created = true
		for _, member := range []int64{memberA, memberB} {
			if _, err := tx.Exec(ctx, insertParticipantSQL, id, member); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

const insertParticipantSQL = `
	INSERT INTO chat_participant (chat_room_id, member_id, created_at, updated_at)
	VALUES ($1, $2, now(), now())
	ON CONFLICT (chat_room_id, member_id) DO NOTHING
`

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, roomID int64) ([]int64, error) {
	if !r.ok() {
		return nil, errNilPool
	}
	rows, err := r.pool.Query(ctx,
		"SELECT member_id FROM chat_participant WHERE chat_room_id = $1 ORDER BY member_id", roomID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, roomID int64, memberID int64) (bool, error) {
	if !r.ok() {
		return false, errNilPool
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM chat_participant WHERE chat_room_id = $1 AND member_id = $2)",
		roomID, memberID).Scan(&exists)
	return exists, err
}

func (r *PgChatRepository) AddParticipant(ctx context.Context, roomID int64, memberID int64) (bool, error) {
	if !r.ok() {
		return false, errNilPool
	}
	ct, err := r.pool.Exec(ctx, insertParticipantSQL, roomID, memberID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// SaveMessage writes the message and derives its read marks from the
// participant rows visible to the same transaction.
func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, []chat.ReadMark, error) {
	if !r.ok() {
		return chat.Message{}, nil, errNilPool
	}
	var marks []chat.ReadMark
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO chat_message (chat_room_id, member_id, content, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id
		`, m.RoomID, m.SenderID, m.Content, m.CreatedAt).Scan(&m.ID); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			INSERT INTO read_status (chat_room_id, member_id, chat_message_id, is_read, created_at, updated_at)
			SELECT p.chat_room_id, p.member_id, $2, p.member_id = $3, $4, $4
			FROM chat_participant p
			WHERE p.chat_room_id = $1
			RETURNING chat_room_id, member_id, chat_message_id, is_read
		`, m.RoomID, m.ID, m.SenderID, m.CreatedAt)
		if err != nil {
			return err
		}
		marks, err = pgx.CollectRows(rows, pgx.RowToStructByPos[chat.ReadMark])
		return err
	})
	if err != nil {
		return chat.Message{}, nil, err
	}
	return m, marks, nil
}

func (r *PgChatRepository) GetMessagesByRoom(ctx context.Context, roomID int64, limit int, offset int) ([]chat.Message, error) {
	if !r.ok() {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.chat_room_id, w.member_id, w.email, w.name, w.content, w.created_at
		FROM (
			SELECT m.id, m.chat_room_id, m.member_id, mb.email, mb.name, m.content, m.created_at
			FROM chat_message m
			JOIN member mb ON mb.id = m.member_id
			WHERE m.chat_room_id = $1
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $2 OFFSET $3
		) w
		ORDER BY w.created_at ASC, w.id ASC
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[chat.Message])
}

func (r *PgChatRepository) MarkRead(ctx context.Context, roomID int64, memberID int64) (int64, error) {
	if !r.ok() {
		return 0, errNilPool
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE read_status
		SET is_read = TRUE, updated_at = now()
		WHERE chat_room_id = $1 AND member_id = $2 AND NOT is_read
	`, roomID, memberID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgChatRepository) CountUnread(ctx context.Context, roomID int64, memberID int64) (int64, error) {
	if !r.ok() {
		return 0, errNilPool
	}
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM read_status
		WHERE chat_room_id = $1 AND member_id = $2 AND NOT is_read
	`, roomID, memberID).Scan(&n)
	return n, err
}
