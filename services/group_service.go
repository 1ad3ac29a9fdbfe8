// services/group_service.go - Group Lifecycle Business Logic
package services

import (
	"errors"
	"sync"

	"unimatch/models"

	"gorm.io/gorm"
)

// GroupService owns every transition of a group's membership, invite and
// request state, and the group's association with a project.
//
// Membership is a single row per (group, user) pair whose State column is
// one of member/invited/requested, so the three sets are disjoint by
// construction. Every mutating operation takes the group's lock and runs
// inside a transaction: two concurrent joins at the capacity boundary are
// serialized and the second one observes the first one's count.
type GroupService struct {
	db     *gorm.DB
	skills *SkillService

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func NewGroupService(db *gorm.DB, skills *SkillService) *GroupService {
	return &GroupService{
		db:     db,
		skills: skills,
		locks:  make(map[uint]*sync.Mutex),
	}
}

// groupLock returns the mutex serializing mutations of one group.
func (s *GroupService) groupLock(groupID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[groupID] = l
	}
	return l
}

func (s *GroupService) enqueueRefresh(groupID uint) {
	if s.skills != nil {
		s.skills.EnqueueGroupRefresh(groupID)
	}
}

// ================== GROUP CRUD ==================

// Create makes a new group with the creator as its sole member.
func (s *GroupService) Create(creatorID uint, name, description string, size int) (*models.Group, error) {
	if name == "" {
		return nil, errors.New("Missing group name")
	}
	if size <= 0 {
		size = models.DefaultGroupSize
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		Size:        size,
		CoverPhoto:  models.DefaultGroupCoverPhoto,
		Skills:      "[]",
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		member := &models.GroupMembership{
			GroupID: group.ID,
			UserID:  creatorID,
			State:   models.StateMember,
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, err
	}

	s.enqueueRefresh(group.ID)
	return group, nil
}

// GetByID retrieves a group with all membership rows and users preloaded.
func (s *GroupService) GetByID(groupID uint) (*models.Group, error) {
	var group models.Group
	err := s.db.Preload("Memberships", func(db *gorm.DB) *gorm.DB {
		return db.Order("group_memberships.created_at ASC")
	}).Preload("Memberships.User").
		First(&group, groupID).Error
	if err != nil {
		return nil, errors.New("Group not found")
	}
	return &group, nil
}

// UpdateName updates the group name.
func (s *GroupService) UpdateName(groupID uint, name string) error {
	if name == "" {
		return errors.New("Missing name")
	}
	return s.updateColumn(groupID, "name", name)
}

// UpdateDescription updates the group description.
func (s *GroupService) UpdateDescription(groupID uint, description string) error {
	return s.updateColumn(groupID, "description", description)
}

// SetCoverPhoto stores the cover photo location.
func (s *GroupService) SetCoverPhoto(groupID uint, coverPhoto string) error {
	if coverPhoto == "" {
		return errors.New("Missing fields")
	}
	return s.updateColumn(groupID, "cover_photo", coverPhoto)
}

// UpdateSize changes the capacity. Shrinking below the current member
// count is rejected.
func (s *GroupService) UpdateSize(groupID uint, size int) error {
	if size <= 0 {
		return errors.New("Could not parse size to an integer")
	}

	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}
		if countMembers(tx, groupID) > int64(size) {
			return errors.New("New group size is too small")
		}
		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("size", size).Error
	})
}

// Delete removes the group and every membership row pointing at it.
func (s *GroupService) Delete(groupID uint) error {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).
			Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, groupID).Error
	})
}

// ================== MEMBERSHIP TRANSITIONS ==================

// Join adds the user directly as a member, subject to group capacity and,
// when the group has a project, the project's max group size.
func (s *GroupService) Join(groupID, userID uint) (string, error) {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	var name string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return errors.New("Cannot find group")
		}
		name = group.Name

		state, exists := membershipState(tx, groupID, userID)
		if exists && state == models.StateMember {
			return errors.New("User already in group")
		}

		members := countMembers(tx, groupID)
		if members+1 > int64(group.Size) {
			return errors.New("No more space for new members")
		}
		if group.ProjectID != nil {
			var project models.Project
			if err := tx.First(&project, *group.ProjectID).Error; err == nil {
				if project.MaxGroupSize != nil && int64(*project.MaxGroupSize) < members+1 {
					return errors.New("No more space for new members")
				}
			}
		}

		return addMember(tx, group, userID)
	})
	if err != nil {
		return "", err
	}

	s.enqueueRefresh(groupID)
	return name, nil
}

// Leave removes the user from the group. When the last member leaves the
// group is deleted along with any outstanding invites and requests.
func (s *GroupService) Leave(groupID, userID uint) (string, bool, error) {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	var name string
	var deleted bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}
		name = group.Name

		state, exists := membershipState(tx, groupID, userID)
		if !exists || state != models.StateMember {
			return errors.New("User not in group")
		}

		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMembership{}).Error; err != nil {
			return err
		}

		if countMembers(tx, groupID) == 0 {
			deleted = true
			if err := tx.Where("group_id = ?", groupID).
				Delete(&models.GroupMembership{}).Error; err != nil {
				return err
			}
			return tx.Delete(&models.Group{}, groupID).Error
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	if !deleted {
		s.enqueueRefresh(groupID)
	}
	return name, deleted, nil
}

// Invite offers membership to a user. Inviting a user who has already
// requested to join counts as acceptance and promotes them to member.
func (s *GroupService) Invite(groupID, userID uint) (bool, error) {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	var joined bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		if countMembers(tx, groupID)+1 > int64(group.Size) {
			return errors.New("No more space for new members")
		}

		state, exists := membershipState(tx, groupID, userID)
		switch {
		case exists && state == models.StateMember:
			return errors.New("User already in group")
		case exists && state == models.StateInvited:
			return errors.New("User already invited to group")
		case exists && state == models.StateRequested:
			joined = true
			return addMember(tx, group, userID)
		}

		if err := userExists(tx, userID); err != nil {
			return err
		}
		return tx.Create(&models.GroupMembership{
			GroupID: groupID,
			UserID:  userID,
			State:   models.StateInvited,
		}).Error
	})
	if err != nil {
		return false, err
	}

	if joined {
		s.enqueueRefresh(groupID)
	}
	return joined, nil
}

// Uninvite withdraws an outstanding invite.
func (s *GroupService) Uninvite(groupID, userID uint) error {
	return s.clearState(groupID, userID, models.StateInvited,
		"User not invited to group")
}

// RejectRequest declines a user's pending join request.
func (s *GroupService) RejectRequest(groupID, userID uint) error {
	return s.clearState(groupID, userID, models.StateRequested,
		"User not requested to join group")
}

// Request records a user's ask to join. Requesting while holding an
// invite counts as acceptance and promotes the user to member.
func (s *GroupService) Request(groupID, userID uint) (bool, error) {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	var joined bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		state, exists := membershipState(tx, groupID, userID)
		if exists && state == models.StateMember {
			return errors.New("User already in group")
		}
		if countMembers(tx, groupID) >= int64(group.Size) {
			return errors.New("Group is full")
		}

		switch {
		case exists && state == models.StateInvited:
			joined = true
			return addMember(tx, group, userID)
		case exists && state == models.StateRequested:
			return errors.New("User already requested to join group")
		}

		if err := userExists(tx, userID); err != nil {
			return err
		}
		return tx.Create(&models.GroupMembership{
			GroupID: groupID,
			UserID:  userID,
			State:   models.StateRequested,
		}).Error
	})
	if err != nil {
		return false, err
	}

	if joined {
		s.enqueueRefresh(groupID)
	}
	return joined, nil
}

// CancelRequest withdraws the user's own pending join request.
func (s *GroupService) CancelRequest(groupID, userID uint) error {
	return s.clearState(groupID, userID, models.StateRequested,
		"User has not requested to join group")
}

// AcceptInvite turns the user's invite into membership, capacity permitting.
func (s *GroupService) AcceptInvite(groupID, userID uint) error {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		state, exists := membershipState(tx, groupID, userID)
		if !exists || state != models.StateInvited {
			return errors.New("User not invited to group")
		}
		if countMembers(tx, groupID) >= int64(group.Size) {
			return errors.New("Group is full")
		}
		return addMember(tx, group, userID)
	})
	if err != nil {
		return err
	}

	s.enqueueRefresh(groupID)
	return nil
}

// RejectInvite declines the invite on the user's behalf.
func (s *GroupService) RejectInvite(groupID, userID uint) error {
	return s.clearState(groupID, userID, models.StateInvited,
		"User not invited to group")
}

// ================== PROJECT ASSOCIATION ==================

// JoinProject associates a fully staffed group with a project.
func (s *GroupService) JoinProject(groupID, projectID uint) error {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			return errors.New("Project not found")
		}

		group, err := loadGroup(tx, groupID)
		if err != nil {
			return err
		}

		if countMembers(tx, groupID) != int64(group.Size) {
			return errors.New("Group is not full")
		}

		if project.MaxGroupCount != nil {
			var groupCount int64
			tx.Model(&models.Group{}).Where("project_id = ?", projectID).
				Count(&groupCount)
			if groupCount+1 > int64(*project.MaxGroupCount) {
				return errors.New("Max group count exceeded")
			}
		}
		if project.MinGroupSize != nil && *project.MinGroupSize > group.Size {
			return errors.New("Group size too small for project")
		}
		if project.MaxGroupSize != nil && *project.MaxGroupSize < group.Size {
			return errors.New("Group size too big for project")
		}

		return tx.Model(&models.Group{}).Where("id = ?", groupID).
			Update("project_id", projectID).Error
	})
}

// ================== QUERIES ==================

// Members returns the group's members in join order.
func (s *GroupService) Members(groupID uint) ([]models.User, error) {
	return s.usersInState(groupID, models.StateMember)
}

// Invites returns the users the group has invited.
func (s *GroupService) Invites(groupID uint) ([]models.User, error) {
	return s.usersInState(groupID, models.StateInvited)
}

// Requests returns the users who asked to join the group.
func (s *GroupService) Requests(groupID uint) ([]models.User, error) {
	return s.usersInState(groupID, models.StateRequested)
}

// All returns every group with membership rows preloaded.
func (s *GroupService) All() ([]models.Group, error) {
	var groups []models.Group
	err := s.db.Preload("Memberships").Find(&groups).Error
	return groups, err
}

// ByProject returns the groups attached to the given project.
func (s *GroupService) ByProject(projectID uint) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.Where("project_id = ?", projectID).
		Preload("Memberships").Find(&groups).Error
	return groups, err
}

// Recruiting returns the caller's groups that still have room and have
// not already invited the given user.
func (s *GroupService) Recruiting(memberID, candidateID uint) ([]models.Group, error) {
	groups, err := s.GroupsOfUser(memberID)
	if err != nil {
		return nil, err
	}

	result := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		memberCount := 0
		invited := false
		for _, m := range g.Memberships {
			if m.State == models.StateMember {
				memberCount++
			}
			if m.UserID == candidateID && m.State == models.StateInvited {
				invited = true
			}
		}
		if memberCount < g.Size && !invited {
			result = append(result, g)
		}
	}
	return result, nil
}

// GroupsOfUser returns every group the user is a member of.
func (s *GroupService) GroupsOfUser(userID uint) ([]models.Group, error) {
	return s.groupsByUserState(userID, models.StateMember)
}

// InvitesOfUser returns the groups that have invited the user.
func (s *GroupService) InvitesOfUser(userID uint) ([]models.Group, error) {
	return s.groupsByUserState(userID, models.StateInvited)
}

// RequestsOfUser returns the groups the user has asked to join.
func (s *GroupService) RequestsOfUser(userID uint) ([]models.Group, error) {
	return s.groupsByUserState(userID, models.StateRequested)
}

// IsMember checks whether the user holds member state in the group.
func (s *GroupService) IsMember(userID, groupID uint) bool {
	var count int64
	s.db.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ? AND state = ?",
			groupID, userID, models.StateMember).
		Count(&count)
	return count > 0
}

// ================== HELPERS ==================

func (s *GroupService) updateColumn(groupID uint, column string, value interface{}) error {
	res := s.db.Model(&models.Group{}).Where("id = ?", groupID).Update(column, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New("Group not found")
	}
	return nil
}

// clearState deletes the (group, user) row when it is in the expected
// state and rejects with notInState otherwise.
func (s *GroupService) clearState(groupID, userID uint, expected models.MembershipState, notInState string) error {
	l := s.groupLock(groupID)
	l.Lock()
	defer l.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadGroup(tx, groupID); err != nil {
			return err
		}
		state, exists := membershipState(tx, groupID, userID)
		if !exists || state != expected {
			return errors.New(notInState)
		}
		return tx.Where("group_id = ? AND user_id = ?", groupID, userID).
			Delete(&models.GroupMembership{}).Error
	})
}

func (s *GroupService) usersInState(groupID uint, state models.MembershipState) ([]models.User, error) {
	if _, err := s.GetByID(groupID); err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.Joins("JOIN group_memberships ON group_memberships.user_id = users.id").
		Where("group_memberships.group_id = ? AND group_memberships.state = ?", groupID, state).
		Order("group_memberships.created_at ASC").
		Find(&users).Error
	return users, err
}

func (s *GroupService) groupsByUserState(userID uint, state models.MembershipState) ([]models.Group, error) {
	var groups []models.Group
	err := s.db.Joins("JOIN group_memberships ON group_memberships.group_id = groups.id").
		Where("group_memberships.user_id = ? AND group_memberships.state = ?", userID, state).
		Preload("Memberships").
		Find(&groups).Error
	return groups, err
}

func loadGroup(tx *gorm.DB, groupID uint) (*models.Group, error) {
	var group models.Group
	if err := tx.First(&group, groupID).Error; err != nil {
		return nil, errors.New("Group not found")
	}
	return &group, nil
}

func userExists(tx *gorm.DB, userID uint) error {
	var count int64
	tx.Model(&models.User{}).Where("id = ?", userID).Count(&count)
	if count == 0 {
		return errors.New("User not found")
	}
	return nil
}

func membershipState(tx *gorm.DB, groupID, userID uint) (models.MembershipState, bool) {
	var m models.GroupMembership
	err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).First(&m).Error
	if err != nil {
		return "", false
	}
	return m.State, true
}

func countMembers(tx *gorm.DB, groupID uint) int64 {
	var count int64
	tx.Model(&models.GroupMembership{}).
		Where("group_id = ? AND state = ?", groupID, models.StateMember).
		Count(&count)
	return count
}

// addMember upserts the (group, user) row to member state. When that
// fills the group, every outstanding join request is cleared so nobody
// is left requesting a group with no room.
func addMember(tx *gorm.DB, group *models.Group, userID uint) error {
	_, exists := membershipState(tx, group.ID, userID)
	if exists {
		if err := tx.Model(&models.GroupMembership{}).
			Where("group_id = ? AND user_id = ?", group.ID, userID).
			Update("state", models.StateMember).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Create(&models.GroupMembership{
			GroupID: group.ID,
			UserID:  userID,
			State:   models.StateMember,
		}).Error; err != nil {
			return err
		}
	}

	if countMembers(tx, group.ID) == int64(group.Size) {
		return tx.Where("group_id = ? AND state = ?", group.ID, models.StateRequested).
			Delete(&models.GroupMembership{}).Error
	}
	return nil
}
