// Package store 持久化 <data_dir> 下的状态：比赛列表、最近一次结果、已保存的票据，以及来源标题缓存。
//
// 目录布局：
//
//	<data_dir>/matches.json
//	<data_dir>/last_ticket.json
//	<data_dir>/tickets/<id>.json
//	<data_dir>/cache/source_titles.json
//
// 所有写入都是原子的（fsx.WriteFileAtomic）。
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/John-Robertt/tipster/internal/domain"
	"github.com/John-Robertt/tipster/internal/infra/fsx"
)

var (
	// ErrNotFound 表示指定的票据不存在。
	ErrNotFound = errors.New("store: not found")
	// ErrAmbiguous 表示 id 前缀匹配到多张票据。
	ErrAmbiguous = errors.New("store: ambiguous id prefix")
)

const (
	matchesFile = "matches.json"
	lastFile    = "last_ticket.json"
	ticketsDir  = "tickets"
)

// Store 是 <data_dir> 的读写入口。零值不可用，请使用 New。
type Store struct {
	Root string
	now  func() time.Time
}

func New(root string) *Store {
	return &Store{
		Root: filepath.Clean(strings.TrimSpace(root)),
		now:  time.Now,
	}
}

// LoadMatches 读取比赛列表；文件不存在时返回空列表。
func (s *Store) LoadMatches() ([]string, error) {
	var m []string
	if _, err := fsx.ReadJSON(filepath.Join(s.Root, matchesFile), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = []string{}
	}
	return m, nil
}

// SaveMatches 覆盖写入比赛列表。
func (s *Store) SaveMatches(matches []string) error {
	if matches == nil {
		matches = []string{}
	}
	return fsx.WriteJSON(filepath.Join(s.Root, matchesFile), matches)
}

// SaveLast 记录最近一次分析结果（供 `tickets save` 使用）。
func (s *Store) SaveLast(tk domain.Ticket) error {
	tk.Finalize()
	return fsx.WriteJSON(filepath.Join(s.Root, lastFile), tk)
}

// LoadLast 读取最近一次分析结果；不存在时返回 ErrNotFound。
func (s *Store) LoadLast() (domain.Ticket, error) {
	var tk domain.Ticket
	exists, err := fsx.ReadJSON(filepath.Join(s.Root, lastFile), &tk)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !exists {
		return domain.Ticket{}, ErrNotFound
	}
	return tk, nil
}

// Reset 清空比赛列表与最近一次结果；已保存的票据不受影响。
func (s *Store) Reset() error {
	if err := s.SaveMatches(nil); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.Root, lastFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveTicket 保存票据并返回带 saved_at 的副本。同一 id 重复保存会覆盖。
func (s *Store) SaveTicket(tk domain.Ticket) (domain.Ticket, error) {
	if err := checkID(tk.ID); err != nil {
		return domain.Ticket{}, err
	}
	now := s.now().UTC()
	tk.SavedAt = &now
	tk.Finalize()
	if err := fsx.WriteJSON(s.ticketPath(tk.ID), tk); err != nil {
		return domain.Ticket{}, err
	}
	return tk, nil
}

// ListTickets 返回已保存的票据，按保存时间从新到旧（同一时间按 id）。
// 无法解析的文件会被跳过，并通过 skipped 返回其路径。
func (s *Store) ListTickets() (tickets []domain.Ticket, skipped []string, err error) {
	dir := filepath.Join(s.Root, ticketsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.Ticket{}, nil, nil
		}
		return nil, nil, err
	}

	tickets = make([]domain.Ticket, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		var tk domain.Ticket
		if _, err := fsx.ReadJSON(p, &tk); err != nil || tk.ID == "" {
			skipped = append(skipped, p)
			continue
		}
		tickets = append(tickets, tk)
	}

	sort.SliceStable(tickets, func(i, j int) bool {
		ti, tj := savedTime(tickets[i]), savedTime(tickets[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return tickets[i].ID < tickets[j].ID
	})
	return tickets, skipped, nil
}

// LoadTicket 按完整 id 或唯一前缀读取票据。
func (s *Store) LoadTicket(ref string) (domain.Ticket, error) {
	id, err := s.resolve(ref)
	if err != nil {
		return domain.Ticket{}, err
	}
	var tk domain.Ticket
	exists, err := fsx.ReadJSON(s.ticketPath(id), &tk)
	if err != nil {
		return domain.Ticket{}, err
	}
	if !exists {
		return domain.Ticket{}, fmt.Errorf("%w：%s", ErrNotFound, ref)
	}
	return tk, nil
}

// DeleteTicket 按完整 id 或唯一前缀删除票据，返回被删除的 id。
func (s *Store) DeleteTicket(ref string) (string, error) {
	id, err := s.resolve(ref)
	if err != nil {
		return "", err
	}
	if err := os.Remove(s.ticketPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w：%s", ErrNotFound, ref)
		}
		return "", err
	}
	return id, nil
}

func (s *Store) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if err := checkID(ref); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.ticketPath(ref)); err == nil {
		return ref, nil
	}

	entries, err := os.ReadDir(filepath.Join(s.Root, ticketsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w：%s", ErrNotFound, ref)
		}
		return "", err
	}
	var hits []string
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		if strings.HasPrefix(id, ref) {
			hits = append(hits, id)
		}
	}
	switch len(hits) {
	case 0:
		return "", fmt.Errorf("%w：%s", ErrNotFound, ref)
	case 1:
		return hits[0], nil
	default:
		sort.Strings(hits)
		return "", fmt.Errorf("%w：%s 匹配到 %s", ErrAmbiguous, ref, strings.Join(hits, ", "))
	}
}

func (s *Store) ticketPath(id string) string {
	return filepath.Join(s.Root, ticketsDir, id+".json")
}

func savedTime(tk domain.Ticket) time.Time {
	if tk.SavedAt != nil {
		return *tk.SavedAt
	}
	return tk.CreatedAt
}

var idRE = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// checkID 避免路径穿越；id 本身是 uuid，这里不做更多“聪明”处理。
func checkID(id string) error {
	if id == "" {
		return fmt.Errorf("ticket id 不能为空")
	}
	if !idRE.MatchString(id) {
		return fmt.Errorf("非法 ticket id：%q", id)
	}
	return nil
}
