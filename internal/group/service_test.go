package group_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/group"
)

func TestService_Create(t *testing.T) {
	type args struct {
		name    string
		creator string
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *group.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{name: "Trip", creator: "mel"},
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().UserExists(gomock.Any(), "mel").Return(true, nil)
				m.EXPECT().
					CreateGroup(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, g *group.Group) error {
						g.ID = uuid.New()
						return nil
					})
			},
		},
		{
			name: "UnknownCreator",
			args: args{name: "Trip", creator: "ghost"},
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().UserExists(gomock.Any(), "ghost").Return(false, nil)
			},
			wantErr: group.ErrUserNotFound,
		},
		{
			name:    "MissingName",
			args:    args{creator: "mel"},
			wantErr: errors.New("group name required"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := group.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := group.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.name, tt.args.creator)

			if tt.wantErr != nil {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.args.creator, got.CreatedBy)
			assert.Equal(t, []string{tt.args.creator}, got.Members)
		})
	}
}

func TestService_AddMember(t *testing.T) {
	groupID := uuid.New()

	type testCase struct {
		name      string
		username  string
		setupMock func(m *group.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name:     "Success",
			username: "sam",
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().GetGroup(gomock.Any(), groupID).Return(&group.Group{ID: groupID}, nil)
				m.EXPECT().UserExists(gomock.Any(), "sam").Return(true, nil)
				m.EXPECT().AddMember(gomock.Any(), groupID, "sam").Return(nil)
			},
		},
		{
			name:     "UnknownGroup",
			username: "sam",
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().GetGroup(gomock.Any(), groupID).Return(nil, group.ErrNotFound)
			},
			wantErr: group.ErrNotFound,
		},
		{
			name:     "UnknownUser",
			username: "ghost",
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().GetGroup(gomock.Any(), groupID).Return(&group.Group{ID: groupID}, nil)
				m.EXPECT().UserExists(gomock.Any(), "ghost").Return(false, nil)
			},
			wantErr: group.ErrUserNotFound,
		},
		{
			name:     "AlreadyMember",
			username: "sam",
			setupMock: func(m *group.MockRepository) {
				m.EXPECT().GetGroup(gomock.Any(), groupID).Return(&group.Group{ID: groupID}, nil)
				m.EXPECT().UserExists(gomock.Any(), "sam").Return(true, nil)
				m.EXPECT().AddMember(gomock.Any(), groupID, "sam").Return(group.ErrAlreadyMember)
			},
			wantErr: group.ErrAlreadyMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := group.NewMockRepository(ctrl)
			tt.setupMock(repo)

			svc := group.NewService(repo)
			err := svc.AddMember(context.Background(), groupID, tt.username)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}
