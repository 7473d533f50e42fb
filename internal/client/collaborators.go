package client

import (
	"context"

	"github.com/kazz187/serviceboard/internal/apiv1"
)

func (c *Client) GetLyricsByDate(ctx context.Context, date string) ([]apiv1.Lyric, error) {
	res, err := call(ctx, c, c.getLyricsByDate, &apiv1.GetLyricsByDateRequest{Date: date})
	if err != nil {
		return nil, err
	}
	return res.Lyrics, nil
}

func (c *Client) UpsertLyric(ctx context.Context, lyric apiv1.Lyric) (*apiv1.Lyric, error) {
	res, err := call(ctx, c, c.upsertLyric, &apiv1.UpsertLyricRequest{Lyric: lyric})
	if err != nil {
		return nil, err
	}
	return &res.Lyric, nil
}

func (c *Client) GetMusicLinks(ctx context.Context, date string) ([]apiv1.MusicLink, error) {
	res, err := call(ctx, c, c.getMusicLinks, &apiv1.GetMusicLinksRequest{Date: date})
	if err != nil {
		return nil, err
	}
	return res.MusicLinks, nil
}

func (c *Client) SetMusicLinks(ctx context.Context, date string, links []apiv1.MusicLink) error {
	_, err := call(ctx, c, c.setMusicLinks, &apiv1.SetMusicLinksRequest{Date: date, MusicLinks: links})
	return err
}

func (c *Client) GetSermonByDate(ctx context.Context, date string) (*apiv1.Sermon, error) {
	res, err := call(ctx, c, c.getSermonByDate, &apiv1.GetSermonByDateRequest{Date: date})
	if err != nil {
		return nil, err
	}
	return res.Sermon, nil
}

func (c *Client) UpsertSermon(ctx context.Context, sermon apiv1.Sermon) (*apiv1.Sermon, error) {
	res, err := call(ctx, c, c.upsertSermon, &apiv1.UpsertSermonRequest{Sermon: sermon})
	if err != nil {
		return nil, err
	}
	return &res.Sermon, nil
}
